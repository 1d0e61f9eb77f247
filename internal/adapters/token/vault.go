package token

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/johnqh/heavymath/internal/domain"
)

// Vault implementa ports.TokenLedger con saldos fungibles en memoria y una
// cuenta de escrow única. Movimientos de escrow fallan con
// domain.ErrInsufficientFunds si la cuenta origen no cubre la cantidad.
type Vault struct {
	mu       sync.Mutex
	balances map[string]sdkmath.Int
	escrowed sdkmath.Int
}

// NewVault crea un vault vacío.
func NewVault() *Vault {
	return &Vault{
		balances: make(map[string]sdkmath.Int),
		escrowed: sdkmath.ZeroInt(),
	}
}

// Mint acredita amount en la cuenta dada.
func (v *Vault) Mint(account string, amount sdkmath.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[account] = v.balance(account).Add(amount)
}

// BalanceOf devuelve el saldo libre (fuera de escrow) de una cuenta.
func (v *Vault) BalanceOf(account string) sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance(account)
}

// Escrowed devuelve la masa total retenida en escrow.
func (v *Vault) Escrowed() sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.escrowed
}

// TransferIn mueve amount de la cuenta from al escrow.
func (v *Vault) TransferIn(_ context.Context, from string, amount sdkmath.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	balance := v.balance(from)
	if balance.LT(amount) {
		return fmt.Errorf("token.TransferIn: %s has %s, needs %s: %w",
			from, balance, amount, domain.ErrInsufficientFunds)
	}
	v.balances[from] = balance.Sub(amount)
	v.escrowed = v.escrowed.Add(amount)
	return nil
}

// TransferOut mueve amount del escrow a la cuenta to.
func (v *Vault) TransferOut(_ context.Context, to string, amount sdkmath.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.escrowed.LT(amount) {
		return fmt.Errorf("token.TransferOut: escrow has %s, needs %s: %w",
			v.escrowed, amount, domain.ErrInsufficientFunds)
	}
	v.escrowed = v.escrowed.Sub(amount)
	v.balances[to] = v.balance(to).Add(amount)
	return nil
}

// balance lee el saldo con el lock ya tomado.
func (v *Vault) balance(account string) sdkmath.Int {
	if b, ok := v.balances[account]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}
