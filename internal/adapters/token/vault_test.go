package token_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnqh/heavymath/internal/adapters/token"
	"github.com/johnqh/heavymath/internal/domain"
)

func TestVault_TransferInAndOut(t *testing.T) {
	v := token.NewVault()
	ctx := context.Background()
	v.Mint("alice", sdkmath.NewInt(1_000))

	require.NoError(t, v.TransferIn(ctx, "alice", sdkmath.NewInt(400)))
	assert.Equal(t, sdkmath.NewInt(600), v.BalanceOf("alice"))
	assert.Equal(t, sdkmath.NewInt(400), v.Escrowed())

	require.NoError(t, v.TransferOut(ctx, "bob", sdkmath.NewInt(150)))
	assert.Equal(t, sdkmath.NewInt(150), v.BalanceOf("bob"))
	assert.Equal(t, sdkmath.NewInt(250), v.Escrowed())
}

func TestVault_InsufficientBalance(t *testing.T) {
	v := token.NewVault()
	ctx := context.Background()
	v.Mint("alice", sdkmath.NewInt(100))

	err := v.TransferIn(ctx, "alice", sdkmath.NewInt(101))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nada se movió.
	assert.Equal(t, sdkmath.NewInt(100), v.BalanceOf("alice"))
	assert.True(t, v.Escrowed().IsZero())
}

func TestVault_InsufficientEscrow(t *testing.T) {
	v := token.NewVault()
	err := v.TransferOut(context.Background(), "bob", sdkmath.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestVault_UnknownAccountIsZero(t *testing.T) {
	v := token.NewVault()
	assert.True(t, v.BalanceOf("ghost").IsZero())
}
