package services

import (
	"context"
	"fmt"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

// AccountService manages account records. The balance is set once at
// creation; afterwards only transaction effects change it.
type AccountService struct {
	store   Store
	reports ReportInvalidator // optional
}

func NewAccountService(store Store, reports ReportInvalidator) *AccountService {
	return &AccountService{store: store, reports: reports}
}

// Create opens an account with an optional initial balance.
func (s *AccountService) Create(ctx context.Context, ownerID int64, name string, accType core.AccountType, currency string, initialBalance core.Money) (core.Account, error) {
	acc := core.Account{
		OwnerID:  ownerID,
		Name:     name,
		Type:     accType,
		Currency: currency,
		Balance:  initialBalance,
	}
	if err := acc.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, &acc); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, ownerID, accountID int64) (core.Account, error) {
	return s.store.GetAccount(ctx, ownerID, accountID)
}

func (s *AccountService) List(ctx context.Context, ownerID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, ownerID)
}

// UpdateDetails edits name, type and currency. Balance edits are not a
// thing: the stored balance only moves through transaction effects.
func (s *AccountService) UpdateDetails(ctx context.Context, ownerID, accountID int64, name string, accType core.AccountType, currency string) (core.Account, error) {
	probe := core.Account{Name: name, Type: accType, Currency: currency}
	if err := probe.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.store.UpdateAccountDetails(ctx, ownerID, accountID, name, accType, currency)
}

// Delete removes the account together with all transactions that reference
// it.
func (s *AccountService) Delete(ctx context.Context, ownerID, accountID int64) error {
	if err := s.store.DeleteAccount(ctx, ownerID, accountID); err != nil {
		return err
	}
	if s.reports != nil {
		s.reports.InvalidateOwner(ownerID)
	}
	return nil
}
