// Package synth is the deterministic bank-data generator. It synthesizes
// institutions, accounts and transactions from stable string seeds: equal
// inputs always yield equal output, across processes and time, with no I/O
// and no stateful randomness.
//
// Transactions have two independent identity layers. Content (amount, date,
// counterparty, description) is a function of the account id alone and is
// therefore identical for every consumer. The externally visible id is a
// function of (consumer id, account id, date, index) so that two consumers
// importing the same account never share ids.
package synth

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hydrUsD/betterbudgeter/internal/core"
)

// DateLayout is the ISO date format used on the DTO boundary.
const DateLayout = "2006-01-02"

// nominalRangeDays is the span date offsets are drawn from, anchored
// backwards from the requested dateTo. Fixed at the default import window.
const nominalRangeDays = 90

const (
	minTxCount = 50
	maxTxCount = 100
)

type (
	// Institution is an immutable catalog entry for a fake bank.
	Institution struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Routing string `json:"routing"`
		Country string `json:"country"`
	}

	// Account mirrors an open-banking-style account DTO. The balance is a
	// signed decimal string on the wire.
	Account struct {
		ID            string           `json:"id"`
		InstitutionID string           `json:"institutionId"`
		Name          string           `json:"name"`
		Type          core.AccountType `json:"type"`
		Currency      string           `json:"currency"`
		Balance       string           `json:"balance"`
	}

	// Transaction mirrors an open-banking-style transaction DTO: signed
	// decimal amount string, ISO booking date, creditor/debtor names.
	// Negative amounts are money out, positive amounts money in.
	Transaction struct {
		ExternalID   string `json:"transactionId"`
		AccountID    string `json:"accountId"`
		Amount       string `json:"amount"`
		Currency     string `json:"currency"`
		BookingDate  string `json:"bookingDate"`
		CreditorName string `json:"creditorName,omitempty"`
		DebtorName   string `json:"debtorName,omitempty"`
		Description  string `json:"description"`
	}
)

// Institutions returns the static institution catalog in fixed order.
func Institutions() []Institution {
	out := make([]Institution, len(catalog.Institutions))
	for i, e := range catalog.Institutions {
		out[i] = Institution(e)
	}
	return out
}

// knownInstitution reports whether id is in the catalog.
func knownInstitution(id string) bool {
	for _, e := range catalog.Institutions {
		if e.ID == id {
			return true
		}
	}
	return false
}

// AccountsFor derives the accounts of an institution from its fixed template
// list. Balances are seeded off the institution id, so the same institution
// always yields the same accounts.
//
// An unknown institution id is not an error: it yields a single fallback
// checking account so downstream code stays total. The fallback is still
// deterministic in the given id.
func AccountsFor(institutionID string) []Account {
	if !knownInstitution(institutionID) {
		return []Account{deriveAccount(institutionID, 0, accountTemplate{
			Name:               "Basic Checking",
			Type:               string(core.Checking),
			Currency:           "USD",
			BaseBalanceCents:   100000,
			BalanceSpreadCents: 100000,
		})}
	}
	out := make([]Account, len(catalog.Accounts))
	for i, tmpl := range catalog.Accounts {
		out[i] = deriveAccount(institutionID, i, tmpl)
	}
	return out
}

func deriveAccount(institutionID string, idx int, tmpl accountTemplate) Account {
	spread := tmpl.BalanceSpreadCents
	if spread < 1 {
		spread = 1
	}
	seed := fmt.Sprintf("%s|balance|%d", institutionID, idx)
	cents := tmpl.BaseBalanceCents + int64(hashMod(seed, int(spread)))
	return Account{
		ID:            AccountID(institutionID, idx),
		InstitutionID: institutionID,
		Name:          tmpl.Name,
		Type:          core.AccountType(tmpl.Type),
		Currency:      tmpl.Currency,
		Balance:       decimal.New(cents, -2).StringFixed(2),
	}
}

// AccountID builds the derived account id for a 0-based template index.
func AccountID(institutionID string, idx int) string {
	return fmt.Sprintf("%s-acc-%03d", institutionID, idx+1)
}

// TransactionsFor generates the transactions of an account visible to one
// consumer within [dateFrom, dateTo].
//
// The nominal count is seed-determined in [50, 100] and dates are drawn from
// a fixed 90-day span anchored at dateTo. A transaction whose derived date
// falls outside the window is discarded, not re-rolled: requesting a window
// narrower than 90 days intentionally returns fewer than the nominal count.
// This is easy to misread as an off-by-one; it is not.
func TransactionsFor(accountID, consumerID string, dateFrom, dateTo time.Time) []Transaction {
	from := truncateDay(dateFrom)
	to := truncateDay(dateTo)
	if to.Before(from) {
		return nil
	}

	templates := catalog.Transactions
	count := minTxCount + hashMod(accountID+"|count", maxTxCount-minTxCount+1)
	// consumer-scoped prefix shared by every id this consumer sees
	scope := Hash32(consumerID + "|" + accountID)

	out := make([]Transaction, 0, count)
	for i := 0; i < count; i++ {
		tmpl := templates[hashMod(fmt.Sprintf("%s|template|%d", accountID, i), len(templates))]

		offset := hashMod(fmt.Sprintf("%s|date|%d", accountID, i), nominalRangeDays)
		date := to.AddDate(0, 0, -offset)
		if date.Before(from) || date.After(to) {
			continue
		}
		dateStr := date.Format(DateLayout)

		span := tmpl.MaxCents - tmpl.MinCents + 1
		cents := tmpl.MinCents + int64(hashMod(fmt.Sprintf("%s|amount|%d", accountID, i), int(span)))

		tx := Transaction{
			AccountID:   accountID,
			Currency:    "USD",
			BookingDate: dateStr,
			Description: tmpl.Description,
			ExternalID: fmt.Sprintf("tx-%08x-%08x-%04d", scope,
				Hash32(fmt.Sprintf("%s|%s|%s|%d", consumerID, accountID, dateStr, i)), i),
		}
		if tmpl.Kind == "income" {
			tx.Amount = decimal.New(cents, -2).StringFixed(2)
			tx.DebtorName = tmpl.Counterparty
		} else {
			tx.Amount = decimal.New(-cents, -2).StringFixed(2)
			tx.CreditorName = tmpl.Counterparty
		}
		out = append(out, tx)
	}
	return out
}

// Counterparty returns whichever party name is set on the DTO.
func (t Transaction) Counterparty() string {
	if t.CreditorName != "" {
		return t.CreditorName
	}
	return t.DebtorName
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
