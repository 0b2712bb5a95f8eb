package model

import (
	"context"
	"io"
)

// TokenBalance is the ledger's view of one balance account.
type TokenBalance struct {
	Mint   PublicKey
	Owner  PublicKey
	Amount uint64
}

// Ledger is the external balance service. Transfer fails with
// ErrInvalidAuthority unless authority equals the source account's owner,
// and with ErrInsufficientFunds if amount exceeds the available balance.
// Callers present only authorities they have verified: a host-verified
// signer, or the vault's own derived authority.
type Ledger interface {
	Balance(ctx context.Context, account PublicKey) (TokenBalance, error)
	Transfer(ctx context.Context, from, to PublicKey, amount uint64, authority PublicKey) error
}

// Clock is the external time source. Now returns the current unix timestamp
// in seconds, monotonically non-decreasing within one invocation.
type Clock interface {
	Now(ctx context.Context) (int64, error)
}

// SignerVerifier validates a signer token and returns the identity it binds.
type SignerVerifier interface {
	VerifySigner(token string) (PublicKey, error)
}

// SnapshotArchive stores serialized vault records for audit and recovery.
type SnapshotArchive interface {
	Store(ctx context.Context, key string, reader io.Reader) error
	Load(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}
