package ports

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// TokenLedger mueve stakes entre las cuentas de los participantes y el
// escrow del engine. Fallos de saldo/allowance salen como
// domain.ErrInsufficientFunds envuelto.
type TokenLedger interface {
	// TransferIn mueve amount desde la cuenta from hacia el escrow.
	TransferIn(ctx context.Context, from string, amount sdkmath.Int) error

	// TransferOut mueve amount del escrow hacia la cuenta to.
	TransferOut(ctx context.Context, to string, amount sdkmath.Int) error
}
