package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/johnqh/heavymath/internal/domain"
)

// CreatePoolParams son los datos de entrada para abrir un pool.
type CreatePoolParams struct {
	Caller       string
	CredentialID string
	Category     string
	SubCategory  string
	Description  string
	Deadline     time.Time
	OracleRef    string // vacío = resolución manual
}

// CreatePool abre un pool Activo y devuelve su ID. El caller debe poseer
// la credencial y esta debe habilitar la categoría/subcategoría elegida.
// El deadline debe quedar al menos MinDeadlineLead en el futuro.
func (e *Engine) CreatePool(ctx context.Context, params CreatePoolParams) (string, error) {
	now := e.now()
	if params.Deadline.Before(now.Add(domain.MinDeadlineLead)) {
		return "", fmt.Errorf("engine.CreatePool: deadline %s under %s away: %w",
			params.Deadline.Format(time.RFC3339), domain.MinDeadlineLead, domain.ErrPrecondition)
	}

	owner, err := e.permission.OwnerOf(ctx, params.CredentialID)
	if err != nil {
		return "", fmt.Errorf("engine.CreatePool: credential %s: %w", params.CredentialID, err)
	}
	if owner != params.Caller {
		return "", fmt.Errorf("engine.CreatePool: caller %s does not hold credential %s: %w",
			params.Caller, params.CredentialID, domain.ErrNotAuthorized)
	}

	ok, err := e.permission.ValidatePermission(ctx, params.CredentialID, params.Category, params.SubCategory)
	if err != nil {
		return "", fmt.Errorf("engine.CreatePool: validate permission: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("engine.CreatePool: credential %s not valid for %s/%s: %w",
			params.CredentialID, params.Category, params.SubCategory, domain.ErrNotAuthorized)
	}

	pool := domain.NewPool(
		uuid.New().String(),
		params.Caller,
		params.CredentialID,
		params.Category,
		params.SubCategory,
		params.Description,
		params.Deadline,
		now,
	)
	pool.OracleRef = params.OracleRef

	ps := &poolState{
		pool:   pool,
		stakes: make(map[string]*domain.Stake),
	}

	e.mu.Lock()
	e.pools[pool.ID] = ps
	e.mu.Unlock()

	e.persistPool(ctx, pool)

	slog.Info("pool created",
		"pool", pool.ID,
		"category", pool.Category,
		"sub_category", pool.SubCategory,
		"deadline", pool.Deadline,
		"oracle", pool.OracleRef != "",
	)
	return pool.ID, nil
}

// SetFee fija la comisión del dealer en basis points. Solo el poseedor
// actual de la credencial, solo mientras el pool está Activo.
func (e *Engine) SetFee(ctx context.Context, poolID, caller string, feeBps int64) error {
	if !domain.ValidFeeBps(feeBps) {
		return fmt.Errorf("engine.SetFee: %d bps: %w", feeBps, domain.ErrFeeOutOfBounds)
	}

	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.SetFee: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.pool.Status != domain.StatusActive {
		return fmt.Errorf("engine.SetFee: pool %s is %s: %w", poolID, ps.pool.Status, domain.ErrPrecondition)
	}
	if err := e.requireHolder(ctx, ps.pool, caller, "engine.SetFee"); err != nil {
		return err
	}

	ps.pool.FeeBps = feeBps
	e.persistPool(ctx, ps.pool)
	return nil
}

// Cancel anula un pool Activo sin stakes. Lo puede hacer el poseedor de la
// credencial o la cuenta del sistema.
func (e *Engine) Cancel(ctx context.Context, poolID, caller string) error {
	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.Cancel: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.pool.Status != domain.StatusActive {
		return fmt.Errorf("engine.Cancel: pool %s is %s: %w", poolID, ps.pool.Status, domain.ErrPrecondition)
	}
	if !ps.pool.Total.IsZero() {
		return fmt.Errorf("engine.Cancel: pool %s has stakes: %w", poolID, domain.ErrPrecondition)
	}

	if caller != e.cfg.SystemAccount {
		if err := e.requireHolder(ctx, ps.pool, caller, "engine.Cancel"); err != nil {
			return err
		}
	}

	now := e.now()
	ps.pool.Status = domain.StatusCancelled
	e.persistPool(ctx, ps.pool)
	e.archive(ctx, ps.buildReport(nil, sdkmath.ZeroInt(), now))

	slog.Info("pool cancelled", "pool", poolID, "caller", caller)
	return nil
}

// ResolveManual resuelve un pool sin oráculo con el valor aportado por el
// poseedor de la credencial. Si el pool no tiene liquidez a ambos lados de
// su equilibrio, la transición se redirige a Cancelled: un pool que no se
// puede liquidar con justicia se anula, no se resuelve con un equilibrio
// sin sentido.
func (e *Engine) ResolveManual(ctx context.Context, poolID, caller string, resolution int) error {
	if !domain.ValidPercentage(resolution) {
		return fmt.Errorf("engine.ResolveManual: resolution %d: %w", resolution, domain.ErrInvalidPercentage)
	}

	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.ResolveManual: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := e.now()
	if err := resolvable(ps.pool, now, "engine.ResolveManual"); err != nil {
		return err
	}
	if ps.pool.OracleRef != "" {
		return fmt.Errorf("engine.ResolveManual: pool %s is oracle-resolved: %w", poolID, domain.ErrPrecondition)
	}
	if err := e.requireHolder(ctx, ps.pool, caller, "engine.ResolveManual"); err != nil {
		return err
	}

	e.finalize(ctx, ps, resolution, now)
	return nil
}

// ResolveOracle resuelve un pool con referencia de oráculo. Lo puede
// invocar cualquiera: la autoridad está en el dato, no en el caller.
// Rechaza datos inválidos, fuera de rango o producidos antes del deadline
// (un pool no puede liquidarse con datos anteriores al cierre de la
// ventana de predicción).
func (e *Engine) ResolveOracle(ctx context.Context, poolID string) error {
	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.ResolveOracle: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := e.now()
	if err := resolvable(ps.pool, now, "engine.ResolveOracle"); err != nil {
		return err
	}
	if ps.pool.OracleRef == "" {
		return fmt.Errorf("engine.ResolveOracle: pool %s has no oracle: %w", poolID, domain.ErrPrecondition)
	}

	data, err := e.oracle.GetData(ctx, ps.pool.OracleRef)
	if err != nil {
		return fmt.Errorf("engine.ResolveOracle: oracle %s: %w", ps.pool.OracleRef, err)
	}
	if !data.Valid {
		return fmt.Errorf("engine.ResolveOracle: oracle %s: stale datum: %w", ps.pool.OracleRef, domain.ErrExternalData)
	}
	if !domain.ValidPercentage(data.Percentage) {
		return fmt.Errorf("engine.ResolveOracle: oracle %s: percentage %d: %w",
			ps.pool.OracleRef, data.Percentage, domain.ErrExternalData)
	}
	if data.Timestamp.Before(ps.pool.Deadline) {
		return fmt.Errorf("engine.ResolveOracle: oracle %s: datum predates deadline: %w",
			ps.pool.OracleRef, domain.ErrExternalData)
	}

	resolved := e.finalize(ctx, ps, data.Percentage, now)
	if resolved {
		// El dato queda consumido solo si realmente liquidó el pool.
		if err := e.oracle.MarkConsumed(ctx, ps.pool.OracleRef); err != nil {
			slog.Warn("oracle mark-consumed failed", "pool", poolID, "ref", ps.pool.OracleRef, "err", err)
		}
	}
	return nil
}

// Abandon marca como Abandonado un pool que nadie resolvió dentro de
// deadline + AbandonGrace. Lo puede invocar cualquiera; todos los stakes
// pasan a ser reembolsables al completo.
func (e *Engine) Abandon(ctx context.Context, poolID string) error {
	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.Abandon: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.pool.Status != domain.StatusActive {
		return fmt.Errorf("engine.Abandon: pool %s is %s: %w", poolID, ps.pool.Status, domain.ErrPrecondition)
	}

	now := e.now()
	cutoff := ps.pool.Deadline.Add(e.cfg.AbandonGrace)
	if !now.After(cutoff) {
		return fmt.Errorf("engine.Abandon: pool %s abandonable after %s: %w",
			poolID, cutoff.Format(time.RFC3339), domain.ErrPrecondition)
	}

	ps.pool.Status = domain.StatusAbandoned
	e.persistPool(ctx, ps.pool)
	e.archive(ctx, ps.buildReport(nil, sdkmath.ZeroInt(), now))

	slog.Info("pool abandoned", "pool", poolID, "stakes", len(ps.stakes))
	return nil
}

// finalize aplica el check de dos lados y cierra el pool: Resolved si hay
// liquidez a ambos lados del equilibrio, Cancelled si no. Devuelve true si
// quedó Resolved. Se llama con ps.mu tomado.
func (e *Engine) finalize(ctx context.Context, ps *poolState, resolution int, now time.Time) bool {
	equilibrium := domain.Equilibrium(ps.pool.Buckets)

	if !domain.TwoSided(ps.pool.Buckets, equilibrium) {
		ps.pool.Status = domain.StatusCancelled
		e.persistPool(ctx, ps.pool)
		e.archive(ctx, ps.buildReport(nil, sdkmath.ZeroInt(), now))

		slog.Info("pool one-sided, voided",
			"pool", ps.pool.ID,
			"equilibrium", equilibrium,
			"stakes", len(ps.stakes),
		)
		return false
	}

	ps.pool.Status = domain.StatusResolved
	ps.pool.Equilibrium = equilibrium
	ps.pool.Resolution = resolution

	settlement := domain.ComputeSettlement(ps.pool.Buckets, ps.pool.Total, equilibrium, resolution, ps.pool.FeeBps)

	// Resto de la división truncada de payouts individuales. Se calcula
	// exacto iterando los stakes ganadores y se barre a la comisión del
	// sistema: nunca queda masa sin dueño contable.
	dust := settlement.WinnerPool
	if settlement.TotalWinning.IsPositive() {
		for _, s := range ps.stakes {
			if domain.IsWinner(s.Percentage, equilibrium, resolution) {
				dust = dust.Sub(settlement.Payout(s.Amount))
			}
		}
	}

	ps.pool.DealerFee = settlement.DealerFee
	ps.pool.SystemFee = settlement.SystemFee.Add(dust)

	// La parte del sistema entra en el acumulador global aquí, no al
	// retirar la comisión del dealer: un pool con comisión de dealer cero
	// pero dust positivo también debe quedar cobrable.
	if ps.pool.SystemFee.IsPositive() {
		e.feeMu.Lock()
		e.systemFees = e.systemFees.Add(ps.pool.SystemFee)
		e.feeMu.Unlock()
	}

	e.persistPool(ctx, ps.pool)
	e.archive(ctx, ps.buildReport(&settlement, dust, now))

	slog.Info("pool resolved",
		"pool", ps.pool.ID,
		"equilibrium", equilibrium,
		"resolution", resolution,
		"total", ps.pool.Total.String(),
		"dealer_fee", ps.pool.DealerFee.String(),
		"system_fee", ps.pool.SystemFee.String(),
	)
	return true
}

// resolvable valida las precondiciones comunes de ambas resoluciones.
func resolvable(p *domain.Pool, now time.Time, op string) error {
	if p.Status != domain.StatusActive {
		return fmt.Errorf("%s: pool %s is %s: %w", op, p.ID, p.Status, domain.ErrPrecondition)
	}
	if !now.After(p.Deadline) {
		return fmt.Errorf("%s: pool %s deadline not reached: %w", op, p.ID, domain.ErrPrecondition)
	}
	return nil
}

// requireHolder comprueba que caller posee la credencial del pool ahora
// mismo (la credencial puede cambiar de manos después de crear el pool).
func (e *Engine) requireHolder(ctx context.Context, p *domain.Pool, caller, op string) error {
	owner, err := e.permission.OwnerOf(ctx, p.CredentialID)
	if err != nil {
		return fmt.Errorf("%s: credential %s: %w", op, p.CredentialID, err)
	}
	if owner != caller {
		return fmt.Errorf("%s: caller %s does not hold credential %s: %w",
			op, caller, p.CredentialID, domain.ErrNotAuthorized)
	}
	return nil
}
