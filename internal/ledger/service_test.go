package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Sypoo1/finance/internal/core"
	"github.com/Sypoo1/finance/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("create test repository: %v", err)
	}
	svc := NewService(repo, nil)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestAddAndDeleteRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const userID = int64(1)

	if _, err := svc.CreateAccount(ctx, userID, "cash", 0); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, userID, "food", "eating out"); err != nil {
		t.Fatalf("create category: %v", err)
	}

	id, err := svc.AddExpense(ctx, userID, 200, "food", "cash")
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	total, err := svc.TotalBalance(ctx, userID)
	if err != nil {
		t.Fatalf("total balance: %v", err)
	}
	if total.Cents != -200 {
		t.Errorf("total after expense = %d, want -200", total.Cents)
	}

	if err := svc.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("delete expense: %v", err)
	}

	total, err = svc.TotalBalance(ctx, userID)
	if err != nil {
		t.Fatalf("total balance: %v", err)
	}
	if total.Cents != 0 {
		t.Errorf("total after round trip = %d, want 0", total.Cents)
	}

	expenses, err := svc.ListExpenses(ctx, userID)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("round trip left %d expense rows", len(expenses))
	}
}

func TestIncomeAndExpenseSigns(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const userID = int64(2)

	if _, err := svc.CreateAccount(ctx, userID, "bank", 10000); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, userID, "salary", ""); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := svc.CreateCategory(ctx, userID, "rent", ""); err != nil {
		t.Fatalf("create category: %v", err)
	}

	if _, err := svc.AddIncome(ctx, userID, 50000, "salary", "bank"); err != nil {
		t.Fatalf("add income: %v", err)
	}
	if _, err := svc.AddExpense(ctx, userID, 30000, "rent", "bank"); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	total, err := svc.TotalBalance(ctx, userID)
	if err != nil {
		t.Fatalf("total balance: %v", err)
	}
	if total.Cents != 30000 {
		t.Errorf("total = %d, want 30000", total.Cents)
	}

	income, err := svc.ListIncome(ctx, userID)
	if err != nil {
		t.Fatalf("list income: %v", err)
	}
	if len(income) != 1 || income[0].Amount.Cents != 50000 || income[0].Category != "salary" {
		t.Errorf("unexpected income rows: %+v", income)
	}
}

func TestEditAccountOverwrite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const userID = int64(3)

	acc, err := svc.CreateAccount(ctx, userID, "cash", 500)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if err := svc.EditAccount(ctx, acc.ID, "wallet", -250); err != nil {
		t.Fatalf("edit account: %v", err)
	}

	accounts, err := svc.ListAccounts(ctx, userID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Name != "wallet" || accounts[0].Balance.Cents != -250 {
		t.Errorf("unexpected account after edit: %+v", accounts)
	}
}

func TestTypedErrorsSurface(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	const userID = int64(4)

	if _, err := svc.CreateAccount(ctx, userID, "cash", 0); err != nil {
		t.Fatalf("create account: %v", err)
	}

	if _, err := svc.CreateAccount(ctx, userID, "cash", 0); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate account = %v, want ErrConflict", err)
	}
	if _, err := svc.AddExpense(ctx, userID, 100, "nope", "cash"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown category = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteIncome(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing income = %v, want ErrNotFound", err)
	}
	if err := svc.EditCategory(ctx, 99, "x", ""); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing category = %v, want ErrNotFound", err)
	}
}
