// Package ledger provides an in-memory reference implementation of the
// external balance service. It honors the collaborator contract: a transfer
// succeeds only when the presented authority owns the source account and the
// balance covers the amount.
package ledger

import (
	"context"
	"sync"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

// Snapshot is a point-in-time copy of all balances, used by the host to roll
// the ledger back when an invocation fails after its transfer step.
type Snapshot map[model.PublicKey]model.TokenBalance

// Memory is an in-memory token ledger.
type Memory struct {
	mu       sync.Mutex
	accounts map[model.PublicKey]model.TokenBalance

	// transferHook, when set, runs after a transfer is applied and before
	// Transfer returns. It simulates external code regaining control during
	// the outgoing call, e.g. to re-enter the vault program.
	transferHook func(ctx context.Context) error
}

var _ model.Ledger = (*Memory)(nil)

// NewMemory creates an empty ledger.
func NewMemory() *Memory {
	return &Memory{accounts: make(map[model.PublicKey]model.TokenBalance)}
}

// CreateAccount provisions a balance account. Creating an account that
// already exists returns model.ErrAccountAlreadyInUse.
func (m *Memory) CreateAccount(key model.PublicKey, mint model.PublicKey, owner model.PublicKey, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[key]; ok {
		return model.ErrAccountAlreadyInUse
	}
	m.accounts[key] = model.TokenBalance{Mint: mint, Owner: owner, Amount: amount}
	return nil
}

// Balance returns the mint, owner and amount of a balance account.
func (m *Memory) Balance(ctx context.Context, account model.PublicKey) (model.TokenBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.accounts[account]
	if !ok {
		return model.TokenBalance{}, model.ErrAccountNotFound
	}
	return b, nil
}

// Transfer moves amount units between balance accounts of the same mint.
func (m *Memory) Transfer(ctx context.Context, from, to model.PublicKey, amount uint64, authority model.PublicKey) error {
	m.mu.Lock()
	src, ok := m.accounts[from]
	if !ok {
		m.mu.Unlock()
		return model.ErrAccountNotFound
	}
	dst, ok := m.accounts[to]
	if !ok {
		m.mu.Unlock()
		return model.ErrAccountNotFound
	}
	if src.Mint != dst.Mint {
		m.mu.Unlock()
		return model.ErrMintMismatch
	}
	if authority != src.Owner {
		m.mu.Unlock()
		return model.ErrInvalidAuthority
	}
	if src.Amount < amount {
		m.mu.Unlock()
		return model.ErrInsufficientFunds
	}

	src.Amount -= amount
	dst.Amount += amount
	m.accounts[from] = src
	m.accounts[to] = dst
	hook := m.transferHook
	m.mu.Unlock()

	// The hook runs unlocked so a nested call may read balances or attempt
	// further transfers.
	if hook != nil {
		return hook(ctx)
	}
	return nil
}

// SetTransferHook installs or clears the nested-call seam.
func (m *Memory) SetTransferHook(fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferHook = fn
}

// Snapshot copies all balances.
func (m *Memory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(Snapshot, len(m.accounts))
	for k, v := range m.accounts {
		snap[k] = v
	}
	return snap
}

// Restore replaces all balances with a previously taken snapshot.
func (m *Memory) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[model.PublicKey]model.TokenBalance, len(snap))
	for k, v := range snap {
		m.accounts[k] = v
	}
}
