package domain

import sdkmath "cosmossdk.io/math"

// Equilibrium calcula el porcentaje de equilibrio de un pool a partir de
// sus buckets. Es un escaneo exacto O(101), no un solver iterativo: el
// resultado debe ser reproducible bit a bit porque de él depende el payout.
//
// Para cada candidato p en 1..99 con masa a algún lado, el desbalance es
//
//	|below(p)·(100−p) − above(p)·p|
//
// que compara el ratio de odds below:above contra p:(100−p) sin dividir.
// Gana el p de menor desbalance; los empates se resuelven por el p más
// bajo (reemplazo solo con "estrictamente menor"). Pool vacío → 0.
func Equilibrium(b Buckets) int {
	total := b.Sum()
	if total.IsZero() {
		return 0
	}

	below := sdkmath.ZeroInt()      // Σ T(i) para i < p
	above := total.Sub(b[0])        // Σ T(i) para i > p
	best := 0
	bestImbalance := sdkmath.Int{} // nil = aún sin candidato

	for p := 1; p <= 99; p++ {
		below = below.Add(b[p-1])
		above = above.Sub(b[p])

		// Sin información en este punto: ni masa por debajo ni por encima.
		if below.IsZero() && above.IsZero() {
			continue
		}

		imbalance := below.MulRaw(int64(100 - p)).Sub(above.MulRaw(int64(p)))
		if imbalance.IsNegative() {
			imbalance = imbalance.Neg()
		}

		if bestImbalance.IsNil() || imbalance.LT(bestImbalance) {
			bestImbalance = imbalance
			best = p
		}
	}

	return best
}

// TwoSided decide si el pool tiene participación genuina a ambos lados de
// su propio equilibrio. Un pool con toda la masa a un lado no se puede
// liquidar de forma justa y debe cancelarse en vez de resolverse.
func TwoSided(b Buckets, equilibrium int) bool {
	hasBelow := false
	for i := 0; i < equilibrium && i < NumBuckets; i++ {
		if b[i].IsPositive() {
			hasBelow = true
			break
		}
	}
	if !hasBelow {
		return false
	}
	for i := equilibrium + 1; i < NumBuckets; i++ {
		if b[i].IsPositive() {
			return true
		}
	}
	return false
}
