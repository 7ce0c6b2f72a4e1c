// Package worker reconciles stored account balances against the ledger
// event stream.
//
// The store already keeps balance and history consistent by running each
// mutation in one transaction; the reconciler is the monitoring side of
// that guarantee. It seeds an expected balance per account, applies the
// deltas carried on the event stream, and periodically compares the result
// with what the store actually holds. Any difference means a mutation path
// bypassed the ledger (or an event was lost) and is worth an alarm.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Sypoo1/finance/internal/amqp"
)

// BalanceSource is the slice of the repository the reconciler needs.
type BalanceSource interface {
	AccountBalances(ctx context.Context) (map[int64]int64, error)
}

// Drift is one account whose stored balance disagrees with the balance
// derived from the event stream.
type Drift struct {
	AccountID int64
	Stored    int64
	Expected  int64
}

type Reconciler struct {
	store BalanceSource

	mu       sync.Mutex
	expected map[int64]int64
	seeded   bool
}

func NewReconciler(store BalanceSource) *Reconciler {
	return &Reconciler{
		store:    store,
		expected: make(map[int64]int64),
	}
}

// Seed snapshots the stored balances as the starting point. Events
// consumed before Seed initialize their account from the balance they
// carry, so a late seed does not produce false drift.
func (r *Reconciler) Seed(ctx context.Context) error {
	balances, err := r.store.AccountBalances(ctx)
	if err != nil {
		return fmt.Errorf("seed balances: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, balance := range balances {
		if _, tracked := r.expected[id]; !tracked {
			r.expected[id] = balance
		}
	}
	r.seeded = true

	slog.Info("Reconciler seeded", "accounts", len(r.expected))
	return nil
}

// HandleEvent folds one ledger event into the expected balances.
func (r *Reconciler) HandleEvent(ev *amqp.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case amqp.EventTransactionRecorded, amqp.EventTransactionRemoved:
		if _, tracked := r.expected[ev.AccountID]; !tracked {
			// First sight of this account: the event carries the balance
			// the store computed after applying it.
			r.expected[ev.AccountID] = ev.Balance
			return nil
		}
		r.expected[ev.AccountID] += ev.Delta
	case amqp.EventAccountCreated, amqp.EventAccountUpdated:
		// Absolute value: created accounts start here, manual overwrites
		// re-base here instead of registering as drift.
		r.expected[ev.AccountID] = ev.Balance
	case amqp.EventAccountDeleted:
		delete(r.expected, ev.AccountID)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// Reconcile compares expected balances against the store and returns the
// accounts that drifted. Accounts the stream has not mentioned yet are
// adopted; accounts gone from the store are dropped.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Drift, error) {
	stored, err := r.store.AccountBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("read balances: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var drifts []Drift
	for id, balance := range stored {
		expected, tracked := r.expected[id]
		if !tracked {
			r.expected[id] = balance
			continue
		}
		if expected != balance {
			drifts = append(drifts, Drift{AccountID: id, Stored: balance, Expected: expected})
		}
	}
	for id := range r.expected {
		if _, ok := stored[id]; !ok {
			delete(r.expected, id)
		}
	}

	for _, d := range drifts {
		slog.WarnContext(ctx, "Balance drift detected",
			"account_id", d.AccountID,
			"stored_cents", d.Stored,
			"expected_cents", d.Expected)
	}
	return drifts, nil
}
