//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
	repo "github.com/ARTHON9611/Time-Locked-Vault/internal/repository/postgres"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/wire"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "vault_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/vault_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestAccountRepository_ProvisionAndGet(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	r := repo.NewAccountRepository(conn)

	vaultKey := model.KeyFromSeed("it-vault")
	record := wire.MarshalVault(&model.Vault{Owner: model.KeyFromSeed("it-owner")})
	require.NoError(t, r.Provision(ctx, model.StoredAccount{Key: vaultKey, Owner: model.ProgramID, Data: record}))

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })

	acc, err := tx.Get(ctx, vaultKey)
	require.NoError(t, err)
	require.Equal(t, vaultKey, acc.Key)
	require.Equal(t, model.ProgramID, acc.Owner)
	require.Equal(t, record, acc.Data)

	_, err = tx.Get(ctx, model.KeyFromSeed("it-missing"))
	require.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestAccountRepository_ProvisionOverwrites(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	r := repo.NewAccountRepository(conn)
	key := model.KeyFromSeed("it-overwrite")

	require.NoError(t, r.Provision(ctx, model.StoredAccount{Key: key, Owner: model.ProgramID, Data: []byte{1}}))
	require.NoError(t, r.Provision(ctx, model.StoredAccount{Key: key, Owner: model.ProgramID, Data: []byte{2, 3}}))

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(ctx) })

	acc, err := tx.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, acc.Data)
}

func TestAccountRepository_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	r := repo.NewAccountRepository(conn)
	key := model.KeyFromSeed("it-tx")
	require.NoError(t, r.Provision(ctx, model.StoredAccount{Key: key, Owner: model.ProgramID, Data: []byte{1}}))

	// Rolled-back writes must not survive.
	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, model.StoredAccount{Key: key, Owner: model.ProgramID, Data: []byte{9}}))
	require.NoError(t, tx.Rollback(ctx))

	check, err := r.Begin(ctx)
	require.NoError(t, err)
	acc, err := check.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, acc.Data)
	require.NoError(t, check.Rollback(ctx))

	// Committed writes must.
	tx, err = r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, model.StoredAccount{Key: key, Owner: model.ProgramID, Data: []byte{9}}))
	require.NoError(t, tx.Commit(ctx))

	check, err = r.Begin(ctx)
	require.NoError(t, err)
	acc, err = check.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte{9}, acc.Data)
	require.NoError(t, check.Rollback(ctx))
}

func TestAccountRepository_PutInsertsNewSlot(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	r := repo.NewAccountRepository(conn)
	key := model.KeyFromSeed("it-fresh")

	tx, err := r.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, model.StoredAccount{Key: key, Owner: model.ProgramID, Data: []byte{4}}))
	require.NoError(t, tx.Commit(ctx))

	check, err := r.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = check.Rollback(ctx) })

	acc, err := check.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte{4}, acc.Data)
}
