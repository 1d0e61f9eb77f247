package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/johnqh/heavymath/internal/domain"
)

// GetPool devuelve una copia del estado del pool.
func (e *Engine) GetPool(poolID string) (domain.Pool, error) {
	ps, ok := e.state(poolID)
	if !ok {
		return domain.Pool{}, fmt.Errorf("engine.GetPool: %s: %w", poolID, domain.ErrPoolNotFound)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return *ps.pool, nil
}

// GetStake devuelve una copia del stake vivo de un participante.
func (e *Engine) GetStake(poolID, owner string) (domain.Stake, error) {
	ps, ok := e.state(poolID)
	if !ok {
		return domain.Stake{}, fmt.Errorf("engine.GetStake: %s: %w", poolID, domain.ErrPoolNotFound)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	stake, exists := ps.stakes[owner]
	if !exists {
		return domain.Stake{}, fmt.Errorf("engine.GetStake: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}
	return *stake, nil
}

// CalculateEquilibrium calcula el equilibrio sobre los buckets actuales
// del pool. Función pura del ledger: sin mutaciones, mismo resultado.
func (e *Engine) CalculateEquilibrium(poolID string) (int, error) {
	ps, ok := e.state(poolID)
	if !ok {
		return 0, fmt.Errorf("engine.CalculateEquilibrium: %s: %w", poolID, domain.ErrPoolNotFound)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return domain.Equilibrium(ps.pool.Buckets), nil
}

// IsWinner indica si el stake de un participante gana. Siempre false en
// pools no resueltos.
func (e *Engine) IsWinner(poolID, owner string) (bool, error) {
	ps, ok := e.state(poolID)
	if !ok {
		return false, fmt.Errorf("engine.IsWinner: %s: %w", poolID, domain.ErrPoolNotFound)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	stake, exists := ps.stakes[owner]
	if !exists {
		return false, fmt.Errorf("engine.IsWinner: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}
	if ps.pool.Status != domain.StatusResolved {
		return false, nil
	}
	return domain.IsWinner(stake.Percentage, ps.pool.Equilibrium, ps.pool.Resolution), nil
}

// RefundOf devuelve lo reembolsable para el stake de un participante en el
// estado actual del pool (cero si el pool sigue Activo).
func (e *Engine) RefundOf(poolID, owner string) (sdkmath.Int, error) {
	ps, ok := e.state(poolID)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("engine.RefundOf: %s: %w", poolID, domain.ErrPoolNotFound)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	stake, exists := ps.stakes[owner]
	if !exists {
		return sdkmath.ZeroInt(), fmt.Errorf("engine.RefundOf: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}
	return domain.RefundAmount(ps.pool.Status, stake.Percentage, ps.pool.Equilibrium, stake.Amount), nil
}

// PayoutOf devuelve el payout que cobraría el stake de un participante en
// un pool resuelto (cero si no es ganador o el pool no está resuelto).
func (e *Engine) PayoutOf(poolID, owner string) (sdkmath.Int, error) {
	ps, ok := e.state(poolID)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("engine.PayoutOf: %s: %w", poolID, domain.ErrPoolNotFound)
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	stake, exists := ps.stakes[owner]
	if !exists {
		return sdkmath.ZeroInt(), fmt.Errorf("engine.PayoutOf: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}
	if ps.pool.Status != domain.StatusResolved ||
		!domain.IsWinner(stake.Percentage, ps.pool.Equilibrium, ps.pool.Resolution) {
		return sdkmath.ZeroInt(), nil
	}
	settlement := domain.ComputeSettlement(ps.pool.Buckets, ps.pool.Total,
		ps.pool.Equilibrium, ps.pool.Resolution, ps.pool.FeeBps)
	return settlement.Payout(stake.Amount), nil
}

// SystemFeesAccrued devuelve el acumulador global de comisiones del
// sistema pendientes de retirar.
func (e *Engine) SystemFeesAccrued() sdkmath.Int {
	e.feeMu.Lock()
	defer e.feeMu.Unlock()
	return e.systemFees
}
