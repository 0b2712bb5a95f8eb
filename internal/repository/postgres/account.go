package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

// AccountRepository stores raw account slots in Postgres. Each invocation
// runs inside one pgx transaction; the row lock taken by Get keeps
// concurrent hosts from interleaving on the same vault, and Commit/Rollback
// is the durable half of the all-or-nothing invocation guarantee.
type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) Provision(ctx context.Context, acc model.StoredAccount) error {
	const query = `
		INSERT INTO accounts (key, owner, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET owner = EXCLUDED.owner, data = EXCLUDED.data, updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, acc.Key[:], acc.Owner[:], acc.Data)
	return err
}

func (r *AccountRepository) Begin(ctx context.Context) (model.AccountTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &accountTx{tx: tx}, nil
}

type accountTx struct {
	tx pgx.Tx
}

func (t *accountTx) Get(ctx context.Context, key model.PublicKey) (model.StoredAccount, error) {
	const query = `SELECT owner, data FROM accounts WHERE key = $1 FOR UPDATE`

	var owner, data []byte
	err := t.tx.QueryRow(ctx, query, key[:]).Scan(&owner, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.StoredAccount{}, model.ErrAccountNotFound
		}
		return model.StoredAccount{}, err
	}

	ownerKey, err := model.PublicKeyFromBytes(owner)
	if err != nil {
		return model.StoredAccount{}, err
	}
	return model.StoredAccount{Key: key, Owner: ownerKey, Data: data}, nil
}

func (t *accountTx) Put(ctx context.Context, acc model.StoredAccount) error {
	const query = `
		INSERT INTO accounts (key, owner, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET owner = EXCLUDED.owner, data = EXCLUDED.data, updated_at = NOW()`

	_, err := t.tx.Exec(ctx, query, acc.Key[:], acc.Owner[:], acc.Data)
	return err
}

func (t *accountTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *accountTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
