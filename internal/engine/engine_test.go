package engine_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/johnqh/heavymath/internal/adapters/oracle"
	"github.com/johnqh/heavymath/internal/adapters/permission"
	"github.com/johnqh/heavymath/internal/adapters/token"
	"github.com/johnqh/heavymath/internal/domain"
	"github.com/johnqh/heavymath/internal/engine"
)

// fixture cablea un engine con adaptadores en memoria y un reloj
// desplazable a mano.
type fixture struct {
	t        *testing.T
	now      time.Time
	eng      *engine.Engine
	registry *permission.Registry
	vault    *token.Vault
	feed     *oracle.Memory
	cred     string
}

const (
	dealer = "dealer"
	system = "system"
	alice  = "alice"
	bob    = "bob"
	carol  = "carol"
	dave   = "dave"
)

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:        t,
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		registry: permission.NewRegistry(),
		vault:    token.NewVault(),
		feed:     oracle.NewMemory(),
	}
	cfg := engine.Config{
		SystemAccount: system,
		AbandonGrace:  72 * time.Hour,
		Now:           func() time.Time { return f.now },
	}
	f.eng = engine.New(cfg, f.registry, f.feed, f.vault, nil, nil)
	f.cred = f.registry.Issue(dealer, permission.Specific("sports"), permission.Any())

	for _, account := range []string{alice, bob, carol, dave} {
		f.vault.Mint(account, sdkmath.NewInt(1_000_000))
	}
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// createPool abre un pool con deadline a 48h; oracleRef vacío = manual.
func (f *fixture) createPool(oracleRef string) string {
	id, err := f.eng.CreatePool(context.Background(), engine.CreatePoolParams{
		Caller:       dealer,
		CredentialID: f.cred,
		Category:     "sports",
		SubCategory:  "football",
		Description:  "test market",
		Deadline:     f.now.Add(48 * time.Hour),
		OracleRef:    oracleRef,
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) place(poolID, owner string, pct int, amount int64) {
	require.NoError(f.t, f.eng.PlaceStake(context.Background(), poolID, owner, pct, sdkmath.NewInt(amount)))
}

// requireConservation comprueba Σ buckets == total del pool.
func (f *fixture) requireConservation(poolID string) {
	pool, err := f.eng.GetPool(poolID)
	require.NoError(f.t, err)
	require.True(f.t, pool.Buckets.Sum().Equal(pool.Total),
		"bucket sum %s != pool total %s", pool.Buckets.Sum(), pool.Total)
}

func (f *fixture) status(poolID string) domain.PoolStatus {
	pool, err := f.eng.GetPool(poolID)
	require.NoError(f.t, err)
	return pool.Status
}
