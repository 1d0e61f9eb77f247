package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// Stake es la posición de un participante en un pool: cantidad en escrow
// más el porcentaje declarado. Como máximo una viva por participante y pool.
type Stake struct {
	Owner      string
	Amount     sdkmath.Int
	Percentage int
	PlacedAt   time.Time

	// Claimed pasa de false a true exactamente una vez, nunca al revés.
	Claimed bool
}

// UpdatableUntil devuelve el instante hasta el que el stake admite cambios
// de porcentaje o incrementos de cantidad.
func (s Stake) UpdatableUntil() time.Time {
	return s.PlacedAt.Add(UpdateGraceWindow)
}
