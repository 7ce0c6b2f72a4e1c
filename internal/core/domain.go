package core

import (
	"errors"
	"strings"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

type (
	// Kind distinguishes the two transaction variants. The variant, not the
	// stored amount, decides the sign of the effect on an account balance.
	Kind string

	// Money is an amount in the smallest currency unit.
	Money struct {
		Cents int64
	}

	// Account is a named money pool. Balance is mutated by the ledger as a
	// delta, or overwritten directly through account edit (manual
	// correction escape hatch).
	Account struct {
		ID      int64
		UserID  int64
		Name    string
		Balance Money
	}

	// Category is a classification label. No balance.
	Category struct {
		ID          int64
		UserID      int64
		Name        string
		Description string
	}

	// Transaction is one expense or income row, projected with the display
	// names of its account and category rather than their raw ids.
	Transaction struct {
		ID       int64
		UserID   int64
		Kind     Kind
		Account  string
		Category string
		Amount   Money
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("name already in use")
	ErrReferenced       = errors.New("entity has transactions referencing it")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidKind      = errors.New("invalid transaction kind")
)

// Delta returns the signed balance effect of a transaction of this kind:
// income adds, expense subtracts. Amount must already be positive.
func (k Kind) Delta(amount int64) int64 {
	if k == KindExpense {
		return -amount
	}
	return amount
}

func (k Kind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Validate rejects non-positive amounts. Transaction amounts are always
// positive; account balances are unconstrained and never pass through here.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	return validateName(a.Name)
}

func (c Category) Validate() error {
	return validateName(c.Name)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
