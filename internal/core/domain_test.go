package core

import (
	"errors"
	"testing"
)

func TestKindDelta(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		amount int64
		want   int64
	}{
		{"expense subtracts", KindExpense, 200, -200},
		{"income adds", KindIncome, 500, 500},
		{"expense of one cent", KindExpense, 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Delta(tt.amount); got != tt.want {
				t.Errorf("Delta(%d) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestKindValidate(t *testing.T) {
	if err := KindExpense.Validate(); err != nil {
		t.Errorf("expense should be valid: %v", err)
	}
	if err := KindIncome.Validate(); err != nil {
		t.Errorf("income should be valid: %v", err)
	}
	if err := Kind("transfer").Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("unknown kind should fail with ErrInvalidKind, got %v", err)
	}
}

func TestMoneyValidate(t *testing.T) {
	tests := []struct {
		name    string
		cents   int64
		wantErr bool
	}{
		{"positive amount", 1234, false},
		{"one cent", 1, false},
		{"zero amount", 0, true},
		{"negative amount", -100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Money{Cents: tt.cents}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Name: "cash"}).Validate(); err != nil {
		t.Errorf("valid account rejected: %v", err)
	}
	if err := (Account{Name: "   "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name should fail with ErrEmptyName, got %v", err)
	}

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	if err := (Account{Name: string(long)}).Validate(); err == nil {
		t.Error("over-long name should be rejected")
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "food", Description: "groceries"}).Validate(); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}
	if err := (Category{Name: ""}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name should fail with ErrEmptyName, got %v", err)
	}
}
