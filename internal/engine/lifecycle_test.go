package engine_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnqh/heavymath/internal/adapters/permission"
	"github.com/johnqh/heavymath/internal/domain"
	"github.com/johnqh/heavymath/internal/engine"
	"github.com/johnqh/heavymath/internal/ports"
)

var ctx = context.Background()

func TestCreatePool_DeadlineTooSoon(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.CreatePool(ctx, engine.CreatePoolParams{
		Caller:       dealer,
		CredentialID: f.cred,
		Category:     "sports",
		SubCategory:  "football",
		Deadline:     f.now.Add(12 * time.Hour), // bajo el mínimo de 24h
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestCreatePool_CallerNotHolder(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.CreatePool(ctx, engine.CreatePoolParams{
		Caller:       alice,
		CredentialID: f.cred,
		Category:     "sports",
		SubCategory:  "football",
		Deadline:     f.now.Add(48 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreatePool_CategoryNotCovered(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.CreatePool(ctx, engine.CreatePoolParams{
		Caller:       dealer,
		CredentialID: f.cred,
		Category:     "politics", // la credencial solo cubre sports/*
		SubCategory:  "elections",
		Deadline:     f.now.Add(48 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreatePool_WildcardCredential(t *testing.T) {
	f := newFixture(t)
	cred := f.registry.Issue(dealer, permission.Any(), permission.Any())
	_, err := f.eng.CreatePool(ctx, engine.CreatePoolParams{
		Caller:       dealer,
		CredentialID: cred,
		Category:     "politics",
		SubCategory:  "elections",
		Deadline:     f.now.Add(48 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestCreatePool_Defaults(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")

	pool, err := f.eng.GetPool(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, pool.Status)
	assert.Equal(t, domain.DefaultFeeBps, pool.FeeBps)
	assert.Equal(t, domain.Unset, pool.Resolution)
	assert.Equal(t, domain.Unset, pool.Equilibrium)
	assert.True(t, pool.Total.IsZero())
}

// --- SetFee ---

func TestSetFee_Bounds(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")

	assert.ErrorIs(t, f.eng.SetFee(ctx, id, dealer, 5), domain.ErrFeeOutOfBounds)
	assert.ErrorIs(t, f.eng.SetFee(ctx, id, dealer, 201), domain.ErrFeeOutOfBounds)
	assert.NoError(t, f.eng.SetFee(ctx, id, dealer, 200))

	pool, _ := f.eng.GetPool(id)
	assert.Equal(t, int64(200), pool.FeeBps)
}

func TestSetFee_OnlyHolder(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	assert.ErrorIs(t, f.eng.SetFee(ctx, id, alice, 100), domain.ErrNotAuthorized)
}

// --- Cancel ---

func TestCancel_EmptyPool(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")

	require.NoError(t, f.eng.Cancel(ctx, id, dealer))
	assert.Equal(t, domain.StatusCancelled, f.status(id))

	// Terminal: nada más se puede hacer.
	assert.ErrorIs(t, f.eng.Cancel(ctx, id, dealer), domain.ErrPrecondition)
}

func TestCancel_BySystemAccount(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	assert.NoError(t, f.eng.Cancel(ctx, id, system))
}

func TestCancel_WithStakesRejected(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 40, 100)
	assert.ErrorIs(t, f.eng.Cancel(ctx, id, dealer), domain.ErrPrecondition)
}

func TestCancel_ByStranger(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	assert.ErrorIs(t, f.eng.Cancel(ctx, id, alice), domain.ErrNotAuthorized)
}

// --- Resolución manual ---

func TestResolveManual_BeforeDeadline(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)

	assert.ErrorIs(t, f.eng.ResolveManual(ctx, id, dealer, 60), domain.ErrPrecondition)
}

func TestResolveManual_OnlyHolder(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)
	f.advance(49 * time.Hour)

	assert.ErrorIs(t, f.eng.ResolveManual(ctx, id, alice, 60), domain.ErrNotAuthorized)
}

func TestResolveManual_TwoSidedResolves(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)
	f.advance(49 * time.Hour)

	require.NoError(t, f.eng.ResolveManual(ctx, id, dealer, 60))

	pool, _ := f.eng.GetPool(id)
	assert.Equal(t, domain.StatusResolved, pool.Status)
	assert.Equal(t, 50, pool.Equilibrium)
	assert.Equal(t, 60, pool.Resolution)
}

func TestResolveManual_OneSidedVoidsPool(t *testing.T) {
	// Todo el mundo entre 10 y 20: el pool no se puede liquidar con
	// justicia y la transición se redirige a Cancelled.
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 10, 100)
	f.place(id, bob, 15, 200)
	f.place(id, carol, 20, 300)
	f.advance(49 * time.Hour)

	require.NoError(t, f.eng.ResolveManual(ctx, id, dealer, 90))
	assert.Equal(t, domain.StatusCancelled, f.status(id))

	// Todos los stakes quedan reembolsables al completo.
	for _, owner := range []string{alice, bob, carol} {
		refund, err := f.eng.RefundOf(id, owner)
		require.NoError(t, err)
		assert.False(t, refund.IsZero(), "owner %s", owner)
	}
}

func TestResolveManual_OraclePoolRejected(t *testing.T) {
	f := newFixture(t)
	f.feed.Set("feed-1", ports.OracleData{Percentage: 60, Timestamp: f.now.Add(50 * time.Hour), Valid: true})
	id := f.createPool("feed-1")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)
	f.advance(49 * time.Hour)

	assert.ErrorIs(t, f.eng.ResolveManual(ctx, id, dealer, 60), domain.ErrPrecondition)
}

func TestResolveManual_InvalidResolution(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	assert.ErrorIs(t, f.eng.ResolveManual(ctx, id, dealer, 101), domain.ErrInvalidPercentage)
}

// --- Resolución por oráculo ---

func TestResolveOracle_HappyPath(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("feed-1")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)
	f.advance(49 * time.Hour)

	f.feed.Set("feed-1", ports.OracleData{Percentage: 75, Timestamp: f.now, Valid: true})

	// Cualquiera puede invocarla: la autoridad está en el dato.
	require.NoError(t, f.eng.ResolveOracle(ctx, id))

	pool, _ := f.eng.GetPool(id)
	assert.Equal(t, domain.StatusResolved, pool.Status)
	assert.Equal(t, 75, pool.Resolution)
	assert.True(t, f.feed.Consumed("feed-1"))
}

func TestResolveOracle_StaleDatum(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("feed-1")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)
	f.advance(49 * time.Hour)

	f.feed.Set("feed-1", ports.OracleData{Percentage: 75, Timestamp: f.now, Valid: false})
	assert.ErrorIs(t, f.eng.ResolveOracle(ctx, id), domain.ErrExternalData)
	assert.Equal(t, domain.StatusActive, f.status(id))
}

func TestResolveOracle_DatumPredatesDeadline(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("feed-1")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 100)

	// Dato producido antes del cierre de la ventana de predicción.
	f.feed.Set("feed-1", ports.OracleData{Percentage: 75, Timestamp: f.now.Add(time.Hour), Valid: true})
	f.advance(49 * time.Hour)

	assert.ErrorIs(t, f.eng.ResolveOracle(ctx, id), domain.ErrExternalData)
}

func TestResolveOracle_OneSidedDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("feed-1")
	f.place(id, alice, 10, 100)
	f.place(id, bob, 20, 100)
	f.advance(49 * time.Hour)

	f.feed.Set("feed-1", ports.OracleData{Percentage: 75, Timestamp: f.now, Valid: true})
	require.NoError(t, f.eng.ResolveOracle(ctx, id))

	assert.Equal(t, domain.StatusCancelled, f.status(id))
	assert.False(t, f.feed.Consumed("feed-1"))
}

func TestResolveOracle_ManualPoolRejected(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.advance(49 * time.Hour)
	assert.ErrorIs(t, f.eng.ResolveOracle(ctx, id), domain.ErrPrecondition)
}

// --- Abandon ---

func TestAbandon_BeforeGraceRejected(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 30, 100)

	f.advance(49 * time.Hour) // pasado el deadline pero no la gracia
	assert.ErrorIs(t, f.eng.Abandon(ctx, id), domain.ErrPrecondition)
}

func TestAbandon_AfterGraceAnyoneCan(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	f.place(id, alice, 30, 100)
	f.place(id, bob, 70, 200)

	f.advance(48*time.Hour + 72*time.Hour + time.Minute)
	require.NoError(t, f.eng.Abandon(ctx, id))
	assert.Equal(t, domain.StatusAbandoned, f.status(id))

	// Reembolso íntegro para todos.
	refund, err := f.eng.RefundOf(id, bob)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(200), refund)
}

func TestAbandon_TerminalPoolRejected(t *testing.T) {
	f := newFixture(t)
	id := f.createPool("")
	require.NoError(t, f.eng.Cancel(ctx, id, dealer))

	f.advance(1000 * time.Hour)
	assert.ErrorIs(t, f.eng.Abandon(ctx, id), domain.ErrPrecondition)
}
