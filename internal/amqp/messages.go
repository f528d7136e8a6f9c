package amqp

import (
	"encoding/json"
	"time"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
)

// TransactionEvent announces a committed transaction mutation. It carries
// only identifiers and the affected month; consumers fetch current state
// from the store, so a stale or redelivered event is harmless.
type TransactionEvent struct {
	Op            string    `json:"op"` // created, updated, deleted
	TransactionID int64     `json:"transaction_id"`
	OwnerID       int64     `json:"owner_id"`
	AccountID     int64     `json:"account_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for a committed mutation.
func NewTransactionEvent(op string, txn core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Op:            op,
		TransactionID: txn.ID,
		OwnerID:       txn.OwnerID,
		AccountID:     txn.AccountID,
		Year:          txn.Date.Year(),
		Month:         txn.Date.Month(),
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON parses an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
