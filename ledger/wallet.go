package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Wallet is the credit surface features charge against. *Ledger implements it.
type Wallet interface {
	SpendCredits(ctx context.Context, amount int) (SpendResult, error)
	GrantCredits(ctx context.Context, amount int) (int, error)
	Credits(ctx context.Context) (int, error)
}

var _ Wallet = (*Ledger)(nil)

// Charge spends cost credits and returns the resulting balance. A
// non-positive cost is free and only reports the balance.
func Charge(ctx context.Context, w Wallet, cost int) (int, error) {
	if cost <= 0 {
		return w.Credits(ctx)
	}
	res, err := w.SpendCredits(ctx, cost)
	return res.NewBalance, err
}

// Refund gives back a charge after the paid operation failed and returns
// cause. Cancellation of ctx is ignored so an aborted request still gets its
// credits back.
func Refund(ctx context.Context, w Wallet, cost int, cause error, log *zap.Logger) (int, error) {
	ctx = context.WithoutCancel(ctx)
	if cost <= 0 {
		balance, err := w.Credits(ctx)
		if err != nil {
			return 0, errors.Join(cause, err)
		}
		return balance, cause
	}
	balance, err := w.GrantCredits(ctx, cost)
	if err != nil {
		if log != nil {
			log.Error("refund failed", zap.Int("amount", cost), zap.Error(err))
		}
		return 0, errors.Join(cause, err)
	}
	if log != nil {
		log.Info("charge refunded", zap.Int("amount", cost), zap.Int("credits", balance))
	}
	return balance, cause
}
