package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/johnqh/heavymath/config"
	"github.com/johnqh/heavymath/internal/adapters/permission"
	"github.com/johnqh/heavymath/internal/adapters/storage"
	"github.com/johnqh/heavymath/internal/adapters/token"
	"github.com/johnqh/heavymath/internal/engine"
)

// demoClock es un reloj desplazable para recorrer el ciclo de vida
// completo de un mercado sin esperar 24 horas de verdad.
type demoClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *demoClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *demoClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// runDemo ejecuta un mercado completo: crear → apostar → resolver →
// cobrar, con tres participantes y comisión de dealer.
func runDemo(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage) {
	clock := &demoClock{now: time.Now().UTC()}

	registry := permission.NewRegistry()
	vault := token.NewVault()
	eng := newEngine(cfg, store, registry, vault, feedFor(cfg), clock.Now)

	const (
		dealer = "dealer"
		alice  = "alice"
		bob    = "bob"
		carol  = "carol"
	)

	for _, account := range []string{alice, bob, carol} {
		vault.Mint(account, sdkmath.NewInt(10_000))
	}

	credential := registry.Issue(dealer, permission.Specific("sports"), permission.Any())

	poolID, err := eng.CreatePool(ctx, engine.CreatePoolParams{
		Caller:       dealer,
		CredentialID: credential,
		Category:     "sports",
		SubCategory:  "football",
		Description:  "home team win probability",
		Deadline:     clock.Now().Add(48 * time.Hour),
	})
	if err != nil {
		slog.Error("demo: create pool", "err", err)
		os.Exit(1)
	}

	if err := eng.SetFee(ctx, poolID, dealer, 100); err != nil {
		slog.Error("demo: set fee", "err", err)
		os.Exit(1)
	}

	place := func(owner string, pct int, amount int64) {
		if err := eng.PlaceStake(ctx, poolID, owner, pct, sdkmath.NewInt(amount)); err != nil {
			slog.Error("demo: place stake", "owner", owner, "err", err)
			os.Exit(1)
		}
	}
	place(alice, 30, 3_000)
	place(bob, 70, 3_000)
	place(carol, 50, 2_000)

	eq, _ := eng.CalculateEquilibrium(poolID)
	slog.Info("demo: market open", "pool", poolID, "equilibrium_preview", eq)

	clock.Advance(49 * time.Hour)

	if err := eng.ResolveManual(ctx, poolID, dealer, 80); err != nil {
		slog.Error("demo: resolve", "err", err)
		os.Exit(1)
	}

	for _, owner := range []string{alice, bob, carol} {
		if payout, err := eng.ClaimWinnings(ctx, poolID, owner); err == nil {
			slog.Info("demo: winnings", "owner", owner, "payout", payout.String())
			continue
		}
		if refund, err := eng.ClaimRefund(ctx, poolID, owner); err == nil {
			slog.Info("demo: refund", "owner", owner, "refund", refund.String())
		} else {
			slog.Info("demo: nothing to claim", "owner", owner)
		}
	}

	if fee, err := eng.WithdrawDealerFee(ctx, poolID, dealer); err == nil {
		slog.Info("demo: dealer fee", "fee", fee.String())
	}
	if fee, err := eng.WithdrawSystemFees(ctx, cfg.Engine.SystemAccount); err == nil {
		slog.Info("demo: system fees", "fee", fee.String())
	}

	slog.Info("demo: final balances",
		"alice", vault.BalanceOf(alice).String(),
		"bob", vault.BalanceOf(bob).String(),
		"carol", vault.BalanceOf(carol).String(),
		"dealer", vault.BalanceOf(dealer).String(),
		"system", vault.BalanceOf(cfg.Engine.SystemAccount).String(),
		"escrow", vault.Escrowed().String(),
	)
}
