package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/johnqh/heavymath/internal/domain"
	"github.com/johnqh/heavymath/internal/ports"
)

// Config contiene la configuración del engine de settlement.
type Config struct {
	// SystemAccount recibe la comisión del sistema y puede cancelar pools
	// vacíos y retirar el acumulador global.
	SystemAccount string

	// AbandonGrace es la espera tras el deadline antes de poder abandonar
	// un pool sin resolver.
	AbandonGrace time.Duration

	// Now se evalúa en el momento de cada llamada; el engine no mantiene
	// ningún reloj ni timer interno. nil → time.Now.
	Now func() time.Time
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		SystemAccount: "system",
		AbandonGrace:  domain.DefaultAbandonGrace,
		Now:           time.Now,
	}
}

// poolState agrupa un pool con sus stakes vivos bajo un mutex propio.
// Operaciones sobre pools distintos avanzan en paralelo; sobre el mismo
// pool se serializan para que la conservación de buckets y la regla de
// un-stake-vivo-por-participante nunca se observen a medias.
type poolState struct {
	mu     sync.Mutex
	pool   *domain.Pool
	stakes map[string]*domain.Stake // owner → stake vivo
}

// Engine es el motor de settlement: ciclo de vida de pools, ledger de
// predicciones, resolución de equilibrio y liquidación de claims.
type Engine struct {
	cfg        Config
	permission ports.Permission
	oracle     ports.Oracle
	tokens     ports.TokenLedger
	storage    ports.Storage
	notifier   ports.Notifier

	mu    sync.RWMutex
	pools map[string]*poolState

	// systemFees es el acumulador global de comisiones del sistema aún no
	// retiradas: arranca en cero, sube en cada resolución con la parte del
	// sistema del pool (comisión + dust) y vuelve a cero al retirarlo el
	// sistema. Estado explícito del engine, nunca un singleton escondido.
	feeMu      sync.Mutex
	systemFees sdkmath.Int
}

// New crea un Engine con todas las dependencias inyectadas.
// storage y notifier pueden ser nil (sin persistencia / sin salida).
func New(
	cfg Config,
	permission ports.Permission,
	oracle ports.Oracle,
	tokens ports.TokenLedger,
	storage ports.Storage,
	notifier ports.Notifier,
) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AbandonGrace <= 0 {
		cfg.AbandonGrace = domain.DefaultAbandonGrace
	}
	return &Engine{
		cfg:        cfg,
		permission: permission,
		oracle:     oracle,
		tokens:     tokens,
		storage:    storage,
		notifier:   notifier,
		pools:      make(map[string]*poolState),
		systemFees: sdkmath.ZeroInt(),
	}
}

// now devuelve el instante de la llamada según el reloj inyectado.
func (e *Engine) now() time.Time {
	return e.cfg.Now()
}

// state busca el poolState registrado para un pool.
func (e *Engine) state(poolID string) (*poolState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ps, ok := e.pools[poolID]
	return ps, ok
}

// persistPool guarda el snapshot del pool best-effort.
func (e *Engine) persistPool(ctx context.Context, p *domain.Pool) {
	if e.storage == nil {
		return
	}
	if err := e.storage.SavePool(ctx, *p); err != nil {
		slog.Warn("storage error", "op", "save_pool", "pool", p.ID, "err", err)
	}
}

// persistStake guarda el snapshot de un stake best-effort.
func (e *Engine) persistStake(ctx context.Context, poolID string, s *domain.Stake) {
	if e.storage == nil {
		return
	}
	if err := e.storage.SaveStake(ctx, poolID, *s); err != nil {
		slog.Warn("storage error", "op", "save_stake", "pool", poolID, "owner", s.Owner, "err", err)
	}
}

// dropStake borra el registro persistido de un stake retirado.
func (e *Engine) dropStake(ctx context.Context, poolID, owner string) {
	if e.storage == nil {
		return
	}
	if err := e.storage.DeleteStake(ctx, poolID, owner); err != nil {
		slog.Warn("storage error", "op", "delete_stake", "pool", poolID, "owner", owner, "err", err)
	}
}

// archive persiste y notifica el cierre terminal de un pool.
func (e *Engine) archive(ctx context.Context, report domain.SettlementReport) {
	if e.storage != nil {
		if err := e.storage.SaveReport(ctx, report); err != nil {
			slog.Warn("storage error", "op", "save_report", "pool", report.PoolID, "err", err)
		}
	}
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "pool", report.PoolID, "err", err)
		}
	}
}

// buildReport arma el resumen terminal de un pool. settlement es nil para
// Cancelled/Abandoned.
func (ps *poolState) buildReport(settlement *domain.Settlement, dust sdkmath.Int, now time.Time) domain.SettlementReport {
	r := domain.SettlementReport{
		PoolID:        ps.pool.ID,
		Category:      ps.pool.Category,
		SubCategory:   ps.pool.SubCategory,
		Status:        ps.pool.Status,
		SettledAt:     now,
		Equilibrium:   ps.pool.Equilibrium,
		Resolution:    ps.pool.Resolution,
		Total:         ps.pool.Total,
		Participants:  len(ps.stakes),
		Distributable: sdkmath.ZeroInt(),
		DealerFee:     sdkmath.ZeroInt(),
		SystemFee:     sdkmath.ZeroInt(),
		WinnerPool:    sdkmath.ZeroInt(),
		Dust:          dust,
	}
	if settlement != nil {
		r.Distributable = settlement.Distributable
		r.DealerFee = settlement.DealerFee
		r.SystemFee = settlement.SystemFee
		r.WinnerPool = settlement.WinnerPool
		for _, s := range ps.stakes {
			if domain.IsWinner(s.Percentage, settlement.Equilibrium, settlement.Resolution) {
				r.Winners++
			}
		}
	}
	return r
}
