package notify_test

import (
	"bytes"
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnqh/heavymath/internal/adapters/notify"
	"github.com/johnqh/heavymath/internal/domain"
)

func TestConsole_ResolvedReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	report := domain.SettlementReport{
		PoolID:        "12345678-aaaa-bbbb-cccc-000000000000",
		Category:      "sports",
		SubCategory:   "football",
		Status:        domain.StatusResolved,
		Equilibrium:   50,
		Resolution:    80,
		Total:         sdkmath.NewInt(8_000),
		Participants:  3,
		Winners:       1,
		Distributable: sdkmath.NewInt(6_000),
		DealerFee:     sdkmath.NewInt(60),
		SystemFee:     sdkmath.NewInt(6),
		WinnerPool:    sdkmath.NewInt(5_934),
		Dust:          sdkmath.ZeroInt(),
	}
	require.NoError(t, c.Notify(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "12345678")
	assert.Contains(t, out, "RESOLVED eq=50 res=80")
	assert.Contains(t, out, "5934")
	assert.Contains(t, out, "Winner pool")
}

func TestConsole_CancelledReportIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	report := domain.SettlementReport{
		PoolID:       "deadbeef-1111-2222-3333-444444444444",
		Category:     "sports",
		SubCategory:  "tennis",
		Status:       domain.StatusCancelled,
		Equilibrium:  domain.Unset,
		Resolution:   domain.Unset,
		Total:        sdkmath.ZeroInt(),
		Participants: 0,
		Dust:         sdkmath.ZeroInt(),
	}
	require.NoError(t, c.Notify(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "CANCELLED")
	assert.Contains(t, out, "full refunds")
	assert.NotContains(t, out, "Winner pool")
}
