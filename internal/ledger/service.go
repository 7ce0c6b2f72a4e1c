// Package ledger exposes one operation per user-facing command, wrapping
// the store and publishing ledger events for downstream consumers.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sypoo1/finance/internal/amqp"
	"github.com/Sypoo1/finance/internal/core"
	"github.com/Sypoo1/finance/internal/storage"
)

// Service coordinates ledger operations across the repository and AMQP.
// A nil events client disables publishing; the store stays authoritative
// either way, so publish failures never fail the operation.
type Service struct {
	store  *storage.Repository
	events *amqp.Client
}

func NewService(store *storage.Repository, events *amqp.Client) *Service {
	return &Service{store: store, events: events}
}

// AddExpense records an expense against the named category and account and
// returns the created transaction id.
func (s *Service) AddExpense(ctx context.Context, userID, amount int64, category, account string) (int64, error) {
	return s.addTransaction(ctx, core.KindExpense, userID, amount, category, account)
}

// AddIncome records an income against the named category and account and
// returns the created transaction id.
func (s *Service) AddIncome(ctx context.Context, userID, amount int64, category, account string) (int64, error) {
	return s.addTransaction(ctx, core.KindIncome, userID, amount, category, account)
}

func (s *Service) addTransaction(ctx context.Context, kind core.Kind, userID, amount int64, category, account string) (int64, error) {
	entry, err := s.store.AddTransaction(ctx, kind, userID, amount, category, account)
	if err != nil {
		return 0, fmt.Errorf("add %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"kind", kind,
		"transaction_id", entry.ID,
		"user_id", userID,
		"account_id", entry.AccountID,
		"amount_cents", amount)

	s.publish(ctx, &amqp.LedgerEvent{
		Type:          amqp.EventTransactionRecorded,
		UserID:        entry.UserID,
		AccountID:     entry.AccountID,
		TransactionID: entry.ID,
		Kind:          string(kind),
		Delta:         kind.Delta(amount),
		Balance:       entry.Balance,
	})
	return entry.ID, nil
}

// DeleteExpense removes a recorded expense and reverses its balance effect.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return s.deleteTransaction(ctx, core.KindExpense, id)
}

// DeleteIncome removes a recorded income and reverses its balance effect.
func (s *Service) DeleteIncome(ctx context.Context, id int64) error {
	return s.deleteTransaction(ctx, core.KindIncome, id)
}

func (s *Service) deleteTransaction(ctx context.Context, kind core.Kind, id int64) error {
	entry, err := s.store.DeleteTransaction(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}

	slog.InfoContext(ctx, "Transaction removed",
		"kind", kind,
		"transaction_id", id,
		"user_id", entry.UserID,
		"account_id", entry.AccountID)

	s.publish(ctx, &amqp.LedgerEvent{
		Type:          amqp.EventTransactionRemoved,
		UserID:        entry.UserID,
		AccountID:     entry.AccountID,
		TransactionID: entry.ID,
		Kind:          string(kind),
		Delta:         -kind.Delta(entry.Amount),
		Balance:       entry.Balance,
	})
	return nil
}

func (s *Service) CreateAccount(ctx context.Context, userID int64, name string, balance int64) (core.Account, error) {
	acc, err := s.store.CreateAccount(ctx, userID, name, balance)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.publish(ctx, &amqp.LedgerEvent{
		Type:      amqp.EventAccountCreated,
		UserID:    userID,
		AccountID: acc.ID,
		Balance:   balance,
	})
	return acc, nil
}

// EditAccount overwrites an account's name and balance. The balance is set
// to exactly the given value regardless of transaction history; see the
// repository for why this bypass exists.
func (s *Service) EditAccount(ctx context.Context, id int64, name string, balance int64) error {
	if err := s.store.UpdateAccount(ctx, id, name, balance); err != nil {
		return fmt.Errorf("edit account: %w", err)
	}

	s.publish(ctx, &amqp.LedgerEvent{
		Type:      amqp.EventAccountUpdated,
		AccountID: id,
		Balance:   balance,
	})
	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.publish(ctx, &amqp.LedgerEvent{
		Type:      amqp.EventAccountDeleted,
		AccountID: id,
	})
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, userID int64, name, description string) (core.Category, error) {
	cat, err := s.store.CreateCategory(ctx, userID, name, description)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return cat, nil
}

func (s *Service) EditCategory(ctx context.Context, id int64, name, description string) error {
	if err := s.store.UpdateCategory(ctx, id, name, description); err != nil {
		return fmt.Errorf("edit category: %w", err)
	}
	return nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

func (s *Service) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *Service) ListExpenses(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, core.KindExpense, userID)
}

func (s *Service) ListIncome(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, core.KindIncome, userID)
}

func (s *Service) TotalBalance(ctx context.Context, userID int64) (core.Money, error) {
	total, err := s.store.TotalBalance(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("total balance: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (s *Service) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		// The operation already committed; the reconciler catches up on
		// its next full comparison.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err, "type", ev.Type, "account_id", ev.AccountID)
	}
}

// Close closes the store and the events client.
func (s *Service) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
