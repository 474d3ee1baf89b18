package ingest

import (
	"context"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/core"
)

// Store is the slice of the persistence layer the pipeline touches. Upsert
// semantics keyed on the unique (owner_id, external_id) constraint are
// assumed to be atomic.
type Store interface {
	GetAccount(ctx context.Context, id string) (core.Account, error)
	CreateAccount(ctx context.Context, acct core.Account) (created bool, err error)
	UpsertTransactions(ctx context.Context, rows []core.Transaction) (inserted, updated int, err error)
	UpdateAccountBalance(ctx context.Context, id string, balance core.Money, syncedAt time.Time) error
}
