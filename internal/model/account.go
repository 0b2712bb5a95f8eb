package model

import "context"

// Account is one storage slot as a handler sees it: a staged in-memory view
// supplied by the host for the duration of a single invocation. Mutations to
// Data become durable only if the invocation succeeds.
type Account struct {
	Key    PublicKey
	Owner  PublicKey
	Data   []byte
	Signer bool
}

// StoredAccount is the durable form of a storage slot.
type StoredAccount struct {
	Key   PublicKey
	Owner PublicKey
	Data  []byte
}

// AccountStore is the host's durable account storage. Begin opens a
// transaction covering one invocation; Provision allocates a slot outside of
// any invocation (the host-side analogue of system account creation).
type AccountStore interface {
	Begin(ctx context.Context) (AccountTx, error)
	Provision(ctx context.Context, acc StoredAccount) error
}

// AccountTx is a single all-or-nothing storage transaction. Get returns
// ErrAccountNotFound for unallocated slots.
type AccountTx interface {
	Get(ctx context.Context, key PublicKey) (StoredAccount, error)
	Put(ctx context.Context, acc StoredAccount) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
