package engine

import (
	"context"
	"fmt"
	"log/slog"

	sdkmath "cosmossdk.io/math"

	"github.com/johnqh/heavymath/internal/domain"
)

// ClaimWinnings paga la parte proporcional del WinnerPool a un stake
// ganador, exactamente una vez. El flag claimed se marca antes de la
// transferencia de salida y solo se revierte si esta falla.
func (e *Engine) ClaimWinnings(ctx context.Context, poolID, owner string) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	ps, ok := e.state(poolID)
	if !ok {
		return zero, fmt.Errorf("engine.ClaimWinnings: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.pool.Status.Terminal() {
		return zero, fmt.Errorf("engine.ClaimWinnings: pool %s is %s: %w", poolID, ps.pool.Status, domain.ErrPrecondition)
	}

	stake, exists := ps.stakes[owner]
	if !exists {
		return zero, fmt.Errorf("engine.ClaimWinnings: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}
	if stake.Claimed {
		return zero, fmt.Errorf("engine.ClaimWinnings: %s in pool %s: %w", owner, poolID, domain.ErrAlreadyClaimed)
	}

	if ps.pool.Status != domain.StatusResolved ||
		!domain.IsWinner(stake.Percentage, ps.pool.Equilibrium, ps.pool.Resolution) {
		return zero, fmt.Errorf("engine.ClaimWinnings: %s in pool %s: %w", owner, poolID, domain.ErrNotAWinner)
	}

	settlement := domain.ComputeSettlement(ps.pool.Buckets, ps.pool.Total,
		ps.pool.Equilibrium, ps.pool.Resolution, ps.pool.FeeBps)
	payout := settlement.Payout(stake.Amount)
	if payout.IsZero() {
		return zero, fmt.Errorf("engine.ClaimWinnings: %s in pool %s: %w", owner, poolID, domain.ErrNoPayout)
	}

	stake.Claimed = true
	if err := e.tokens.TransferOut(ctx, owner, payout); err != nil {
		stake.Claimed = false
		return zero, fmt.Errorf("engine.ClaimWinnings: payout to %s: %w", owner, err)
	}

	e.persistStake(ctx, poolID, stake)

	slog.Info("winnings claimed", "pool", poolID, "owner", owner, "payout", payout.String())
	return payout, nil
}

// ClaimRefund devuelve el stake íntegro cuando procede: pool Cancelado o
// Abandonado, o Resuelto con el porcentaje clavado en el equilibrio.
func (e *Engine) ClaimRefund(ctx context.Context, poolID, owner string) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	ps, ok := e.state(poolID)
	if !ok {
		return zero, fmt.Errorf("engine.ClaimRefund: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.pool.Status.Terminal() {
		return zero, fmt.Errorf("engine.ClaimRefund: pool %s is %s: %w", poolID, ps.pool.Status, domain.ErrPrecondition)
	}

	stake, exists := ps.stakes[owner]
	if !exists {
		return zero, fmt.Errorf("engine.ClaimRefund: %s in pool %s: %w", owner, poolID, domain.ErrStakeNotFound)
	}
	if stake.Claimed {
		return zero, fmt.Errorf("engine.ClaimRefund: %s in pool %s: %w", owner, poolID, domain.ErrAlreadyClaimed)
	}

	refund := domain.RefundAmount(ps.pool.Status, stake.Percentage, ps.pool.Equilibrium, stake.Amount)
	if refund.IsZero() {
		return zero, fmt.Errorf("engine.ClaimRefund: %s in pool %s: %w", owner, poolID, domain.ErrNoRefund)
	}

	stake.Claimed = true
	if err := e.tokens.TransferOut(ctx, owner, refund); err != nil {
		stake.Claimed = false
		return zero, fmt.Errorf("engine.ClaimRefund: refund to %s: %w", owner, err)
	}

	e.persistStake(ctx, poolID, stake)

	slog.Info("refund claimed", "pool", poolID, "owner", owner, "refund", refund.String())
	return refund, nil
}

// WithdrawDealerFee paga al poseedor de la credencial la comisión de
// dealer fijada en la resolución, una sola vez por pool.
func (e *Engine) WithdrawDealerFee(ctx context.Context, poolID, caller string) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	ps, ok := e.state(poolID)
	if !ok {
		return zero, fmt.Errorf("engine.WithdrawDealerFee: %s: %w", poolID, domain.ErrPoolNotFound)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.pool.Status != domain.StatusResolved {
		return zero, fmt.Errorf("engine.WithdrawDealerFee: pool %s is %s: %w", poolID, ps.pool.Status, domain.ErrPrecondition)
	}
	if err := e.requireHolder(ctx, ps.pool, caller, "engine.WithdrawDealerFee"); err != nil {
		return zero, err
	}

	// Flag explícito, nunca cero-como-centinela: un segundo intento debe
	// distinguir "ya pagado" de "nunca calculado".
	if ps.pool.DealerFeeWithdrawn {
		return zero, fmt.Errorf("engine.WithdrawDealerFee: pool %s: %w", poolID, domain.ErrFeesWithdrawn)
	}
	if ps.pool.DealerFee.IsZero() {
		return zero, fmt.Errorf("engine.WithdrawDealerFee: pool %s: %w", poolID, domain.ErrNoPayout)
	}

	ps.pool.DealerFeeWithdrawn = true
	if err := e.tokens.TransferOut(ctx, caller, ps.pool.DealerFee); err != nil {
		ps.pool.DealerFeeWithdrawn = false
		return zero, fmt.Errorf("engine.WithdrawDealerFee: payout to %s: %w", caller, err)
	}

	e.persistPool(ctx, ps.pool)

	slog.Info("dealer fee withdrawn", "pool", poolID, "dealer", caller, "fee", ps.pool.DealerFee.String())
	return ps.pool.DealerFee, nil
}

// WithdrawSystemFees transfiere el acumulador global de comisiones del
// sistema a la cuenta del sistema y lo deja a cero. Solo el sistema.
func (e *Engine) WithdrawSystemFees(ctx context.Context, caller string) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()

	if caller != e.cfg.SystemAccount {
		return zero, fmt.Errorf("engine.WithdrawSystemFees: caller %s: %w", caller, domain.ErrNotAuthorized)
	}

	e.feeMu.Lock()
	defer e.feeMu.Unlock()

	if e.systemFees.IsZero() {
		return zero, fmt.Errorf("engine.WithdrawSystemFees: %w", domain.ErrNoPayout)
	}

	amount := e.systemFees
	e.systemFees = sdkmath.ZeroInt()

	if err := e.tokens.TransferOut(ctx, caller, amount); err != nil {
		e.systemFees = amount
		return zero, fmt.Errorf("engine.WithdrawSystemFees: payout: %w", err)
	}

	slog.Info("system fees withdrawn", "amount", amount.String())
	return amount, nil
}
