package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// SettlementReport resume la transición terminal de un pool para
// presentarla al operador (consola) y archivarla.
type SettlementReport struct {
	PoolID      string
	Category    string
	SubCategory string
	Status      PoolStatus
	SettledAt   time.Time

	Equilibrium int // Unset si el pool no llegó a resolverse
	Resolution  int

	Total        sdkmath.Int
	Participants int
	Winners      int

	// Desglose de comisiones; todo cero para Cancelled/Abandoned.
	Distributable sdkmath.Int
	DealerFee     sdkmath.Int
	SystemFee     sdkmath.Int
	WinnerPool    sdkmath.Int

	// Dust es el resto de la división truncada de payouts, barrido a la
	// comisión del sistema en la resolución.
	Dust sdkmath.Int
}
