package domain

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

func TestComputeSettlement_FeeBreakdown(t *testing.T) {
	// 3000@30, 2000@50 (equilibrio), 3000@70; comisión 100 bps.
	b := buckets(map[int]int64{30: 3000, 50: 2000, 70: 3000})
	s := ComputeSettlement(b, sdkmath.NewInt(8000), 50, 80, 100)

	assert.Equal(t, int64(2000), s.EquilibriumAmount.Int64())
	assert.Equal(t, int64(6000), s.Distributable.Int64())
	assert.Equal(t, int64(60), s.DealerFee.Int64())  // 6000 × 100 / 10000
	assert.Equal(t, int64(6), s.SystemFee.Int64())   // 10% de la comisión del dealer
	assert.Equal(t, int64(5934), s.WinnerPool.Int64())
	assert.Equal(t, int64(3000), s.TotalWinning.Int64()) // solo el lado > 50
}

func TestComputeSettlement_ResolutionBelowEquilibrium(t *testing.T) {
	b := buckets(map[int]int64{30: 3000, 50: 2000, 70: 3000})
	s := ComputeSettlement(b, sdkmath.NewInt(8000), 50, 20, 100)
	assert.Equal(t, int64(3000), s.TotalWinning.Int64()) // lado < 50
}

func TestComputeSettlement_ResolutionEqualsEquilibrium(t *testing.T) {
	// Nadie gana: TotalWinning queda a cero.
	b := buckets(map[int]int64{30: 3000, 50: 2000, 70: 3000})
	s := ComputeSettlement(b, sdkmath.NewInt(8000), 50, 50, 100)
	assert.True(t, s.TotalWinning.IsZero())
	assert.True(t, s.Payout(sdkmath.NewInt(3000)).IsZero())
}

func TestComputeSettlement_AllMassAtEquilibrium(t *testing.T) {
	b := buckets(map[int]int64{50: 500})
	s := ComputeSettlement(b, sdkmath.NewInt(500), 50, 80, 200)
	assert.True(t, s.Distributable.IsZero())
	assert.True(t, s.DealerFee.IsZero())
	assert.True(t, s.WinnerPool.IsZero())
}

func TestSettlement_PayoutTruncates(t *testing.T) {
	// 1000@20 contra 333+333+334@70, comisión 10 bps.
	b := buckets(map[int]int64{20: 1000, 70: 1000})
	s := ComputeSettlement(b, sdkmath.NewInt(2000), 50, 80, 10)

	assert.Equal(t, int64(2), s.DealerFee.Int64())
	assert.Equal(t, int64(0), s.SystemFee.Int64())
	assert.Equal(t, int64(1998), s.WinnerPool.Int64())

	p1 := s.Payout(sdkmath.NewInt(333)) // 333 × 1998 / 1000 = 665.334 → 665
	p2 := s.Payout(sdkmath.NewInt(334)) // 334 × 1998 / 1000 = 667.332 → 667
	assert.Equal(t, int64(665), p1.Int64())
	assert.Equal(t, int64(667), p2.Int64())

	// La suma truncada deja resto: 665+665+667 = 1997 < 1998.
	sum := p1.Add(p1).Add(p2)
	assert.Equal(t, int64(1997), sum.Int64())
	assert.True(t, sum.LT(s.WinnerPool))
}

// --- IsWinner ---

func TestIsWinner_ResolutionAbove(t *testing.T) {
	assert.True(t, IsWinner(70, 50, 80))
	assert.False(t, IsWinner(30, 50, 80))
	assert.False(t, IsWinner(50, 50, 80)) // el equilibrio nunca gana
}

func TestIsWinner_ResolutionBelow(t *testing.T) {
	assert.True(t, IsWinner(30, 50, 20))
	assert.False(t, IsWinner(70, 50, 20))
	assert.False(t, IsWinner(50, 50, 20))
}

func TestIsWinner_ResolutionEqualsEquilibrium(t *testing.T) {
	assert.False(t, IsWinner(30, 50, 50))
	assert.False(t, IsWinner(70, 50, 50))
	assert.False(t, IsWinner(50, 50, 50))
}

// --- RefundAmount ---

func TestRefundAmount_TerminalStates(t *testing.T) {
	amount := sdkmath.NewInt(1234)

	// Cancelado y abandonado: íntegro sea cual sea el porcentaje.
	assert.Equal(t, amount, RefundAmount(StatusCancelled, 30, Unset, amount))
	assert.Equal(t, amount, RefundAmount(StatusAbandoned, 99, Unset, amount))

	// Resuelto: íntegro solo clavado en el equilibrio.
	assert.Equal(t, amount, RefundAmount(StatusResolved, 50, 50, amount))
	assert.True(t, RefundAmount(StatusResolved, 49, 50, amount).IsZero())

	// Activo: nada.
	assert.True(t, RefundAmount(StatusActive, 50, 50, amount).IsZero())
}

func TestWinnerAndRefund_MutuallyExclusive(t *testing.T) {
	amount := sdkmath.NewInt(100)
	for pct := 0; pct <= 100; pct++ {
		winner := IsWinner(pct, 50, 80)
		refund := RefundAmount(StatusResolved, pct, 50, amount)
		if winner {
			assert.True(t, refund.IsZero(), "pct %d: winner with refund", pct)
		}
		if !refund.IsZero() {
			assert.False(t, winner, "pct %d: refund for winner", pct)
		}
	}
}
