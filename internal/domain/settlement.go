package domain

import sdkmath "cosmossdk.io/math"

// Settlement es el desglose determinista de comisiones y payout de un pool
// resuelto. Es función pura del estado finalizado del ledger: volver a
// calcularla sin mutaciones produce valores idénticos.
type Settlement struct {
	Equilibrium int
	Resolution  int

	// EquilibriumAmount es la masa apostada exactamente al equilibrio.
	// Esos stakes ni ganan ni pierden: se reembolsan íntegros y quedan
	// fuera del cálculo de comisiones.
	EquilibriumAmount sdkmath.Int

	Distributable sdkmath.Int // Total − EquilibriumAmount, suelo en cero
	DealerFee     sdkmath.Int
	SystemFee     sdkmath.Int
	WinnerPool    sdkmath.Int

	// TotalWinning es la masa estrictamente en el lado ganador,
	// excluido el bucket de equilibrio.
	TotalWinning sdkmath.Int
}

// ComputeSettlement deriva el desglose de settlement de un pool con
// equilibrium y resolution ya fijados.
func ComputeSettlement(b Buckets, total sdkmath.Int, equilibrium, resolution int, feeBps int64) Settlement {
	s := Settlement{
		Equilibrium:       equilibrium,
		Resolution:        resolution,
		EquilibriumAmount: b[equilibrium],
		TotalWinning:      sdkmath.ZeroInt(),
	}

	s.Distributable = total.Sub(s.EquilibriumAmount)
	if s.Distributable.IsNegative() {
		s.Distributable = sdkmath.ZeroInt()
	}

	s.DealerFee = s.Distributable.MulRaw(feeBps).QuoRaw(10000)
	s.SystemFee = s.DealerFee.MulRaw(SystemFeePercent).QuoRaw(100)
	s.WinnerPool = s.Distributable.Sub(s.DealerFee).Sub(s.SystemFee)

	switch {
	case resolution > equilibrium:
		for i := equilibrium + 1; i < NumBuckets; i++ {
			s.TotalWinning = s.TotalWinning.Add(b[i])
		}
	case resolution < equilibrium:
		for i := 0; i < equilibrium; i++ {
			s.TotalWinning = s.TotalWinning.Add(b[i])
		}
	default:
		// resolution == equilibrium: nadie gana; los stakes fuera del
		// equilibrio quedan sin payout ni reembolso.
	}

	return s
}

// Payout devuelve la parte proporcional del WinnerPool para un stake
// ganador. División entera truncada: la suma de todos los payouts puede
// quedar por debajo de WinnerPool; ese resto se trata en la resolución
// (ver Engine), nunca aquí.
func (s Settlement) Payout(amount sdkmath.Int) sdkmath.Int {
	if s.TotalWinning.IsZero() || s.WinnerPool.IsZero() {
		return sdkmath.ZeroInt()
	}
	return amount.Mul(s.WinnerPool).Quo(s.TotalWinning)
}

// IsWinner decide si un stake con el porcentaje dado gana, con el
// equilibrio y la resolución del pool. Porcentaje exactamente igual al
// equilibrio nunca gana (es reembolsable). Con resolución igual al
// equilibrio no gana nadie.
func IsWinner(percentage, equilibrium, resolution int) bool {
	if percentage == equilibrium {
		return false
	}
	switch {
	case resolution > equilibrium:
		return percentage > equilibrium
	case resolution < equilibrium:
		return percentage < equilibrium
	default:
		return false
	}
}

// RefundAmount devuelve lo reembolsable para un stake según el estado
// terminal del pool. Cancelado o Abandonado → reembolso íntegro sea cual
// sea el porcentaje. Resuelto → íntegro solo si el stake está clavado en
// el equilibrio. El resto de stakes resueltos no ganadores no tienen vía
// de reembolso: su masa es parte del pool distribuible.
func RefundAmount(status PoolStatus, percentage, equilibrium int, amount sdkmath.Int) sdkmath.Int {
	switch status {
	case StatusCancelled, StatusAbandoned:
		return amount
	case StatusResolved:
		if percentage == equilibrium {
			return amount
		}
	}
	return sdkmath.ZeroInt()
}
