package service

import (
	"context"
	"fmt"

	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/domain"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/internal/core/ports"
	"github.com/infoshareacademy/jpydzr8-backend-brokers/pkg/apperror"

	"github.com/google/uuid"
)

// MasterResolver implements ports.MasterWalletResolver by looking up the
// clearing account's wallet in the requested currency. The buy and sell
// side of a settlement resolve to the same wallet when both legs share a
// currency; the engine handles that aliasing.
type MasterResolver struct {
	wallets         ports.WalletRepository
	masterAccountID uuid.UUID
}

// NewMasterResolver creates a resolver bound to the clearing account.
func NewMasterResolver(wallets ports.WalletRepository, masterAccountID uuid.UUID) *MasterResolver {
	return &MasterResolver{
		wallets:         wallets,
		masterAccountID: masterAccountID,
	}
}

// Resolve returns the clearing wallet for the currency.
func (r *MasterResolver) Resolve(ctx context.Context, currency string, _ domain.MasterSide) (*domain.Wallet, error) {
	wallet, err := r.wallets.GetByOwnerAndCurrency(ctx, r.masterAccountID, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolving master wallet for %s: %w", currency, err))
	}
	if wallet == nil {
		return nil, apperror.ErrMasterWalletUnavailable(currency)
	}
	return wallet, nil
}
