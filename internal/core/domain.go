package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
	Credit   AccountType = "credit"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	AccountType string

	TxType string

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Account is a user-owned mirror of a synthetic bank account. It is
	// created when the user links an institution and its balance is
	// rewritten by the ingestion pipeline after each import.
	Account struct {
		ID            string      `json:"id"`
		OwnerID       string      `json:"ownerId"`
		InstitutionID string      `json:"institutionId"`
		SyntheticID   string      `json:"-"` // the generator-side account id this mirrors
		Name          string      `json:"name"`
		Type          AccountType `json:"type"`
		Currency      string      `json:"currency"`
		Balance       Money       `json:"balance"`
		LastSyncedAt  time.Time   `json:"lastSyncedAt"`
	}

	// Transaction is a persisted transaction row. Amount is always the
	// absolute value; Type carries the sign. (OwnerID, ExternalID) is the
	// idempotency key for the upsert path.
	Transaction struct {
		OwnerID      string    `json:"ownerId"`
		AccountID    string    `json:"accountId"`
		ExternalID   string    `json:"externalId"`
		Type         TxType    `json:"type"`
		Amount       Money     `json:"amount"`
		Currency     string    `json:"currency"`
		BookingDate  time.Time `json:"bookingDate"`
		Counterparty string    `json:"counterparty"`
		Description  string    `json:"description"`
		Category     string    `json:"category"`
	}

	// Budget holds a monthly spending limit for one category. Spend is
	// never stored here; it is recomputed from transactions on demand.
	Budget struct {
		OwnerID      string `json:"ownerId"`
		Category     string `json:"category"`
		MonthlyLimit Money  `json:"monthlyLimit"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyOwner      = errors.New("empty owner id")
	ErrInvalidTxType   = errors.New("invalid transaction type")
	ErrInvalidAcctType = errors.New("invalid account type")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t AccountType) Valid() bool {
	switch t {
	case Checking, Savings, Credit:
		return true
	}
	return false
}

// Signed returns the amount with the sign implied by the transaction type:
// income adds, expense subtracts.
func (tx Transaction) Signed() int64 {
	if tx.Type == Expense {
		return -tx.Amount.Cents
	}
	return tx.Amount.Cents
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.MonthlyLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
