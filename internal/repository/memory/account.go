// Package memory provides an in-memory account store with staging
// transactions. It backs tests and hosts that do not need durable storage.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

// Store is an in-memory model.AccountStore.
type Store struct {
	mu       sync.Mutex
	accounts map[model.PublicKey]model.StoredAccount
}

var _ model.AccountStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{accounts: make(map[model.PublicKey]model.StoredAccount)}
}

// Provision allocates or replaces a slot. This is operator-level access that
// bypasses invocation semantics, the analogue of system account creation.
func (s *Store) Provision(ctx context.Context, acc model.StoredAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc.Data = bytes.Clone(acc.Data)
	s.accounts[acc.Key] = acc
	return nil
}

// Begin opens a staging transaction. Writes are buffered and applied
// atomically on Commit.
func (s *Store) Begin(ctx context.Context) (model.AccountTx, error) {
	return &storeTx{
		store:  s,
		staged: make(map[model.PublicKey]model.StoredAccount),
	}, nil
}

type storeTx struct {
	store  *Store
	staged map[model.PublicKey]model.StoredAccount
}

func (t *storeTx) Get(ctx context.Context, key model.PublicKey) (model.StoredAccount, error) {
	if acc, ok := t.staged[key]; ok {
		acc.Data = bytes.Clone(acc.Data)
		return acc, nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	acc, ok := t.store.accounts[key]
	if !ok {
		return model.StoredAccount{}, model.ErrAccountNotFound
	}
	acc.Data = bytes.Clone(acc.Data)
	return acc, nil
}

func (t *storeTx) Put(ctx context.Context, acc model.StoredAccount) error {
	acc.Data = bytes.Clone(acc.Data)
	t.staged[acc.Key] = acc
	return nil
}

func (t *storeTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for key, acc := range t.staged {
		t.store.accounts[key] = acc
	}
	t.staged = nil
	return nil
}

func (t *storeTx) Rollback(ctx context.Context) error {
	t.staged = nil
	return nil
}
