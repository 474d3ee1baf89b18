package amqp

import (
	"encoding/json"
	"time"
)

// ImportRequestMessage asks the import worker to run a bank import for one
// account. It carries only identifiers and the requested window; the worker
// resolves everything else against storage.
type ImportRequestMessage struct {
	OwnerID   string    `json:"owner_id"`
	AccountID string    `json:"account_id"`
	DateFrom  string    `json:"date_from,omitempty"`
	DateTo    string    `json:"date_to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportRequestMessage creates an import request for the given account.
// dateFrom and dateTo are optional "2006-01-02" strings; empty means the
// worker applies the default window.
func NewImportRequestMessage(ownerID, accountID, dateFrom, dateTo string) *ImportRequestMessage {
	return &ImportRequestMessage{
		OwnerID:   ownerID,
		AccountID: accountID,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ImportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportRequestMessageFromJSON creates a message from JSON bytes
func ImportRequestMessageFromJSON(data []byte) (*ImportRequestMessage, error) {
	var msg ImportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
