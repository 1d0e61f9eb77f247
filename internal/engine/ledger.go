package engine

import (
	"context"
	"fmt"
	"log/slog"

	sdkmath "cosmossdk.io/math"

	"github.com/johnqh/heavymath/internal/domain"
)

// PlaceStake escrowa amount del participante y registra su predicción.
// Un stake vivo por participante y pool; solo con el pool Activo y antes
// del deadline.
func (e *Engine) PlaceStake(ctx context.Context, poolID, owner string, percentage int, amount sdkmath.Int) error {
	if !domain.ValidPercentage(percentage) {
		return fmt.Errorf("engine.PlaceStake: %d: %w", percentage, domain.ErrInvalidPercentage)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return fmt.Errorf("engine.PlaceStake: %w", domain.ErrInvalidAmount)
	}

	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.PlaceStake: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := e.now()
	if ps.pool.Status != domain.StatusActive || !now.Before(ps.pool.Deadline) {
		return fmt.Errorf("engine.PlaceStake: pool %s: %w", poolID, domain.ErrMarketClosed)
	}
	if _, exists := ps.stakes[owner]; exists {
		return fmt.Errorf("engine.PlaceStake: %s in pool %s: %w", owner, poolID, domain.ErrAlreadyStaked)
	}

	// Primero el movimiento de valor: si el escrow falla, no hay nada que
	// revertir en el ledger.
	if err := e.tokens.TransferIn(ctx, owner, amount); err != nil {
		return fmt.Errorf("engine.PlaceStake: escrow from %s: %w", owner, err)
	}

	stake := &domain.Stake{
		Owner:      owner,
		Amount:     amount,
		Percentage: percentage,
		PlacedAt:   now,
	}
	ps.stakes[owner] = stake
	ps.pool.Buckets.Add(percentage, amount)
	ps.pool.Total = ps.pool.Total.Add(amount)

	e.persistPool(ctx, ps.pool)
	e.persistStake(ctx, poolID, stake)

	slog.Debug("stake placed", "pool", poolID, "owner", owner, "pct", percentage, "amount", amount.String())
	return nil
}

// UpdateStake cambia el porcentaje declarado y/o añade cantidad a un stake
// existente, solo dentro de la ventana de gracia tras la colocación. El
// movimiento de bucket viejo → bucket nuevo es atómico bajo el mutex del
// pool: en ningún instante la masa está contada doble ni ausente.
func (e *Engine) UpdateStake(ctx context.Context, poolID, owner string, percentage int, additional sdkmath.Int) error {
	if !domain.ValidPercentage(percentage) {
		return fmt.Errorf("engine.UpdateStake: %d: %w", percentage, domain.ErrInvalidPercentage)
	}
	if additional.IsNil() {
		additional = sdkmath.ZeroInt()
	}
	if additional.IsNegative() {
		return fmt.Errorf("engine.UpdateStake: %w", domain.ErrInvalidAmount)
	}

	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.UpdateStake: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	stake, exists := ps.stakes[owner]
	if !exists {
		return fmt.Errorf("engine.UpdateStake: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}

	now := e.now()
	if ps.pool.Status != domain.StatusActive || !now.Before(ps.pool.Deadline) {
		return fmt.Errorf("engine.UpdateStake: pool %s: %w", poolID, domain.ErrMarketClosed)
	}
	if now.After(stake.UpdatableUntil()) {
		return fmt.Errorf("engine.UpdateStake: placed at %s: %w", stake.PlacedAt, domain.ErrGracePeriodExpired)
	}

	if additional.IsPositive() {
		if err := e.tokens.TransferIn(ctx, owner, additional); err != nil {
			return fmt.Errorf("engine.UpdateStake: escrow from %s: %w", owner, err)
		}
	}

	// Mover la cantidad actual al bucket nuevo antes de tocar el
	// porcentaje almacenado, luego sumar lo añadido.
	if percentage != stake.Percentage {
		ps.pool.Buckets.Sub(stake.Percentage, stake.Amount)
		ps.pool.Buckets.Add(percentage, stake.Amount)
		stake.Percentage = percentage
	}
	if additional.IsPositive() {
		ps.pool.Buckets.Add(percentage, additional)
		stake.Amount = stake.Amount.Add(additional)
		ps.pool.Total = ps.pool.Total.Add(additional)
	}

	e.persistPool(ctx, ps.pool)
	e.persistStake(ctx, poolID, stake)

	slog.Debug("stake updated", "pool", poolID, "owner", owner, "pct", percentage, "added", additional.String())
	return nil
}

// WithdrawStake retira el stake completo y devuelve el escrow al
// participante. Disponible siempre antes del deadline, sin ventana de
// gracia. La contabilidad se deshace atómicamente con la eliminación; si
// la transferencia de salida falla, se restaura todo.
func (e *Engine) WithdrawStake(ctx context.Context, poolID, owner string) error {
	ps, ok := e.state(poolID)
	if !ok {
		return fmt.Errorf("engine.WithdrawStake: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	stake, exists := ps.stakes[owner]
	if !exists {
		return fmt.Errorf("engine.WithdrawStake: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}

	now := e.now()
	if ps.pool.Status != domain.StatusActive || !now.Before(ps.pool.Deadline) {
		return fmt.Errorf("engine.WithdrawStake: pool %s: %w", poolID, domain.ErrMarketClosed)
	}

	// Contabilidad primero, transferencia después: el estado queda
	// liquidado antes de mover valor hacia fuera.
	delete(ps.stakes, owner)
	ps.pool.Buckets.Sub(stake.Percentage, stake.Amount)
	ps.pool.Total = ps.pool.Total.Sub(stake.Amount)

	if err := e.tokens.TransferOut(ctx, owner, stake.Amount); err != nil {
		ps.stakes[owner] = stake
		ps.pool.Buckets.Add(stake.Percentage, stake.Amount)
		ps.pool.Total = ps.pool.Total.Add(stake.Amount)
		return fmt.Errorf("engine.WithdrawStake: refund to %s: %w", owner, err)
	}

	e.persistPool(ctx, ps.pool)
	e.dropStake(ctx, poolID, owner)

	slog.Debug("stake withdrawn", "pool", poolID, "owner", owner, "amount", stake.Amount.String())
	return nil
}
