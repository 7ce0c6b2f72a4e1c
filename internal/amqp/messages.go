package amqp

import (
	"encoding/json"
	"time"
)

// Event types carried on the ledger stream.
const (
	EventTransactionRecorded = "transaction_recorded"
	EventTransactionRemoved  = "transaction_removed"
	EventAccountCreated      = "account_created"
	EventAccountUpdated      = "account_updated"
	EventAccountDeleted      = "account_deleted"
)

// LedgerEvent is the message published after every balance-affecting
// mutation. Transaction events carry the signed Delta that was applied;
// account events carry the absolute Balance the account was set to, so a
// consumer can re-base after a manual overwrite.
type LedgerEvent struct {
	Type          string    `json:"type"`
	UserID        int64     `json:"user_id"`
	AccountID     int64     `json:"account_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Kind          string    `json:"kind,omitempty"`
	Delta         int64     `json:"delta,omitempty"`
	Balance       int64     `json:"balance,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
