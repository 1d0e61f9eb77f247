package domain

import "errors"

// Taxonomía de errores del engine. Toda operación que falla con uno de
// estos errores no deja ninguna mutación parcial: o todo o nada.
var (
	ErrPoolNotFound  = errors.New("pool not found")
	ErrStakeNotFound = errors.New("stake not found")

	// ErrPrecondition: estado de ciclo de vida incorrecto, ventana temporal
	// no satisfecha, o caller equivocado para la transición.
	ErrPrecondition = errors.New("precondition violated")

	ErrInvalidPercentage = errors.New("percentage out of range")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrFeeOutOfBounds    = errors.New("fee rate out of bounds")

	ErrMarketClosed       = errors.New("market closed")
	ErrAlreadyStaked      = errors.New("participant already has a live stake")
	ErrGracePeriodExpired = errors.New("update grace period expired")

	ErrNotAuthorized = errors.New("not authorized")

	// ErrExternalData: el oráculo devolvió datos inválidos, obsoletos o
	// anteriores al cierre del mercado.
	ErrExternalData = errors.New("oracle data invalid or stale")

	// ErrInsufficientFunds la emite el ledger de tokens al mover escrow.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrAlreadyClaimed = errors.New("stake already claimed")
	ErrNotAWinner     = errors.New("stake is not a winner")
	ErrNoPayout       = errors.New("no payout available")
	ErrNoRefund       = errors.New("no refund available")
	ErrFeesWithdrawn  = errors.New("fees already withdrawn")
)
