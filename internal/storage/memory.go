package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/core"
)

// MemoryStore is an in-memory implementation of the persistence operations.
// It backs the "memory" data backend and is the test double for the
// pipeline and budget engine.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[string]core.Account           // account id -> account
	transactions map[txKey]core.Transaction        // (owner, external id) -> row
	budgets      map[budgetKey]core.Budget         // (owner, category) -> budget
	synthetic    map[budgetKey]struct{}            // (owner, synthetic id) linked set
}

type txKey struct{ owner, externalID string }

type budgetKey struct{ owner, name string }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]core.Account),
		transactions: make(map[txKey]core.Transaction),
		budgets:      make(map[budgetKey]core.Budget),
		synthetic:    make(map[budgetKey]struct{}),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return core.Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context, ownerID string) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Account
	for _, acct := range s.accounts {
		if acct.OwnerID == ownerID {
			out = append(out, acct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateAccount(_ context.Context, acct core.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := budgetKey{acct.OwnerID, acct.SyntheticID}
	if _, linked := s.synthetic[key]; linked {
		return false, nil
	}
	s.synthetic[key] = struct{}{}
	s.accounts[acct.ID] = acct
	return true, nil
}

func (s *MemoryStore) DeleteAccount(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok || acct.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.synthetic, budgetKey{acct.OwnerID, acct.SyntheticID})
	// cascade, same as the schema's ON DELETE
	for key, tx := range s.transactions {
		if tx.AccountID == id && tx.OwnerID == ownerID {
			delete(s.transactions, key)
		}
	}
	return nil
}

func (s *MemoryStore) UpsertTransactions(_ context.Context, rows []core.Transaction) (inserted, updated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		key := txKey{row.OwnerID, row.ExternalID}
		if _, exists := s.transactions[key]; exists {
			updated++
		} else {
			inserted++
		}
		s.transactions[key] = row
	}
	return inserted, updated, nil
}

func (s *MemoryStore) UpdateAccountBalance(_ context.Context, id string, balance core.Money, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acct.Balance = balance
	acct.LastSyncedAt = syncedAt
	s.accounts[id] = acct
	return nil
}

func (s *MemoryStore) GetTransactions(_ context.Context, ownerID string, from, to time.Time) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		if tx.BookingDate.Before(from) || tx.BookingDate.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.Before(out[j].BookingDate)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out, nil
}

func (s *MemoryStore) GetBudgets(_ context.Context, ownerID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Budget
	for key, b := range s.budgets {
		if key.owner == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *MemoryStore) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets[budgetKey{b.OwnerID, b.Category}] = b
	return nil
}

// TransactionKeys returns the set of (owner, external id) pairs currently
// stored. Used by idempotency tests.
func (s *MemoryStore) TransactionKeys(ownerID string) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool)
	for key := range s.transactions {
		if key.owner == ownerID {
			out[key.externalID] = true
		}
	}
	return out
}
