package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// PoolStatus representa el ciclo de vida de un pool de apuestas.
type PoolStatus string

const (
	StatusActive    PoolStatus = "ACTIVE"
	StatusCancelled PoolStatus = "CANCELLED"
	StatusResolved  PoolStatus = "RESOLVED"
	StatusAbandoned PoolStatus = "ABANDONED"
)

// Terminal devuelve true si el pool ya no admite más transiciones.
func (s PoolStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusResolved || s == StatusAbandoned
}

const (
	// NumBuckets cubre los porcentajes declarables 0..100 inclusive.
	NumBuckets = 101

	// MinFeeBps / MaxFeeBps acotan la comisión del dealer en basis points.
	MinFeeBps     int64 = 10
	MaxFeeBps     int64 = 200
	DefaultFeeBps int64 = MinFeeBps

	// SystemFeePercent es la parte del sistema sobre la comisión del dealer,
	// no un corte independiente del pool.
	SystemFeePercent int64 = 10

	// Unset marca resolution/equilibrium antes de que el pool se resuelva.
	Unset = -1

	// MinDeadlineLead es la antelación mínima del deadline al crear un pool.
	MinDeadlineLead = 24 * time.Hour

	// UpdateGraceWindow es la ventana tras colocar un stake en la que aún
	// se permite modificarlo.
	UpdateGraceWindow = 5 * time.Minute

	// DefaultAbandonGrace es cuánto hay que esperar tras el deadline para
	// poder abandonar un pool que nadie resolvió.
	DefaultAbandonGrace = 7 * 24 * time.Hour
)

// Pool es una instancia de mercado con su propio deadline, stakes y
// resultado de settlement.
type Pool struct {
	ID           string
	Creator      string
	CredentialID string
	Category     string
	SubCategory  string
	Description  string
	CreatedAt    time.Time
	Deadline     time.Time
	FeeBps       int64
	Status       PoolStatus
	OracleRef    string // vacío = resolución manual

	// Resolution y Equilibrium valen Unset hasta que Status == Resolved.
	Resolution  int
	Equilibrium int

	// Total y Buckets mantienen la ley de conservación:
	// Σ Buckets == Total en todo momento.
	Total   sdkmath.Int
	Buckets Buckets

	// Comisiones fijadas en la resolución. DealerFeeWithdrawn distingue
	// "ya pagado" de "nunca calculado"; cero no sirve de centinela.
	DealerFee          sdkmath.Int
	SystemFee          sdkmath.Int
	DealerFeeWithdrawn bool
}

// NewPool crea un pool Activo con la comisión mínima por defecto.
func NewPool(id, creator, credentialID, category, subCategory, description string, deadline, now time.Time) *Pool {
	return &Pool{
		ID:           id,
		Creator:      creator,
		CredentialID: credentialID,
		Category:     category,
		SubCategory:  subCategory,
		Description:  description,
		CreatedAt:    now,
		Deadline:     deadline,
		FeeBps:       DefaultFeeBps,
		Status:       StatusActive,
		Resolution:   Unset,
		Equilibrium:  Unset,
		Total:        sdkmath.ZeroInt(),
		Buckets:      NewBuckets(),
		DealerFee:    sdkmath.ZeroInt(),
		SystemFee:    sdkmath.ZeroInt(),
	}
}

// Buckets agrega los stakes vivos por punto porcentual declarado.
type Buckets [NumBuckets]sdkmath.Int

// NewBuckets devuelve los 101 buckets inicializados a cero.
// El zero value de sdkmath.Int es nil; construir siempre con esto.
func NewBuckets() Buckets {
	var b Buckets
	for i := range b {
		b[i] = sdkmath.ZeroInt()
	}
	return b
}

// Add suma amount al bucket pct.
func (b *Buckets) Add(pct int, amount sdkmath.Int) {
	b[pct] = b[pct].Add(amount)
}

// Sub resta amount del bucket pct.
func (b *Buckets) Sub(pct int, amount sdkmath.Int) {
	b[pct] = b[pct].Sub(amount)
}

// Sum devuelve la masa total de todos los buckets.
func (b Buckets) Sum() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for i := range b {
		total = total.Add(b[i])
	}
	return total
}

// ValidPercentage comprueba que un porcentaje declarado esté en [0,100].
func ValidPercentage(pct int) bool {
	return pct >= 0 && pct <= 100
}

// ValidFeeBps comprueba que la comisión esté en [MinFeeBps, MaxFeeBps].
func ValidFeeBps(bps int64) bool {
	return bps >= MinFeeBps && bps <= MaxFeeBps
}
