// Package host provides the reference runtime around the vault program: it
// verifies signer tokens, stages the referenced accounts inside a storage
// transaction, serializes invocations per vault, and commits mutations only
// when the program succeeds. A failed invocation leaves durable state
// byte-for-byte unchanged.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/ledger"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/logger"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/vault"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/wire"
)

// AccountRef names one positional account of an invocation. A non-empty
// SignerToken asserts that the caller controls Key; the runtime verifies it
// before the program runs.
type AccountRef struct {
	Key         model.PublicKey
	SignerToken string
}

// InvokeRequest is one raw request to the vault program.
type InvokeRequest struct {
	Instruction []byte
	Accounts    []AccountRef
}

// RollbackLedger is a ledger the runtime can roll back around an invocation.
type RollbackLedger interface {
	model.Ledger
	Snapshot() ledger.Snapshot
	Restore(ledger.Snapshot)
}

// SystemClock reads wall-clock time in unix seconds.
type SystemClock struct{}

var _ model.Clock = SystemClock{}

func (SystemClock) Now(ctx context.Context) (int64, error) {
	return time.Now().Unix(), nil
}

// Runtime invokes the vault program with host guarantees.
type Runtime struct {
	store   model.AccountStore
	ledger  RollbackLedger
	signers model.SignerVerifier
	archive model.SnapshotArchive
	service *vault.Service
	logger  *logger.Logger
	locks   sync.Map
}

// NewRuntime wires a runtime. archive may be nil to disable snapshots.
func NewRuntime(
	store model.AccountStore,
	ledg RollbackLedger,
	clock model.Clock,
	signers model.SignerVerifier,
	archive model.SnapshotArchive,
	logger *logger.Logger,
) *Runtime {
	return &Runtime{
		store:   store,
		ledger:  ledg,
		signers: signers,
		archive: archive,
		service: vault.New(ledg, clock, logger),
		logger:  logger,
	}
}

// Invoke runs one vault operation to completion. It either commits every
// mutation the operation made or none of them.
func (r *Runtime) Invoke(ctx context.Context, req InvokeRequest) error {
	id := uuid.New()
	start := time.Now()
	r.logger.Info("invocation started",
		"invocation_id", id,
		"accounts", len(req.Accounts))

	err := r.invoke(ctx, req)

	duration := time.Since(start)
	if err != nil {
		r.logger.Error("invocation failed",
			"invocation_id", id,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error())
		return err
	}
	r.logger.Info("invocation completed",
		"invocation_id", id,
		"duration_ms", duration.Milliseconds())
	return nil
}

func (r *Runtime) invoke(ctx context.Context, req InvokeRequest) error {
	if len(req.Accounts) < 2 {
		return model.ErrNotEnoughAccounts
	}

	signerSet, err := r.verifySigners(req.Accounts)
	if err != nil {
		return err
	}

	// The host serializes all mutating access per vault; the vault storage
	// slot is positional account 1 for every operation.
	vaultKey := req.Accounts[1].Key
	mu := r.lockFor(vaultKey)
	mu.Lock()
	defer mu.Unlock()

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin storage transaction: %w", err)
	}
	snap := r.ledger.Snapshot()

	staged, err := r.stageAccounts(ctx, tx, req.Accounts, signerSet)
	if err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	call := &vault.Call{Instruction: req.Instruction, Accounts: staged}
	if err := r.service.Execute(ctx, call); err != nil {
		_ = tx.Rollback(ctx)
		r.ledger.Restore(snap)
		return err
	}

	vaultAcc := staged[1]
	err = tx.Put(ctx, model.StoredAccount{
		Key:   vaultAcc.Key,
		Owner: vaultAcc.Owner,
		Data:  vaultAcc.Data,
	})
	if err != nil {
		_ = tx.Rollback(ctx)
		r.ledger.Restore(snap)
		return fmt.Errorf("failed to store vault account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		r.ledger.Restore(snap)
		return fmt.Errorf("failed to commit storage transaction: %w", err)
	}

	r.archiveSnapshot(ctx, vaultAcc)
	return nil
}

// verifySigners checks every presented signer token and returns the set of
// verified signer keys.
func (r *Runtime) verifySigners(accounts []AccountRef) (map[model.PublicKey]bool, error) {
	signers := make(map[model.PublicKey]bool)
	for _, ref := range accounts {
		if ref.SignerToken == "" {
			continue
		}
		key, err := r.signers.VerifySigner(ref.SignerToken)
		if err != nil {
			return nil, fmt.Errorf("failed to verify signer token: %w", err)
		}
		if key != ref.Key {
			return nil, model.ErrMissingSignature
		}
		signers[key] = true
	}
	return signers, nil
}

// stageAccounts materializes the positional account list from storage.
// Slots the store does not hold (pure identities, balance accounts, the
// collaborator ids) stage as empty unowned accounts.
func (r *Runtime) stageAccounts(
	ctx context.Context,
	tx model.AccountTx,
	refs []AccountRef,
	signers map[model.PublicKey]bool,
) ([]*model.Account, error) {
	staged := make([]*model.Account, len(refs))
	for i, ref := range refs {
		acc := &model.Account{Key: ref.Key, Signer: signers[ref.Key]}
		stored, err := tx.Get(ctx, ref.Key)
		switch {
		case err == nil:
			acc.Owner = stored.Owner
			acc.Data = bytes.Clone(stored.Data)
		case errors.Is(err, model.ErrAccountNotFound):
		default:
			return nil, fmt.Errorf("failed to load account %s: %w", ref.Key, err)
		}
		staged[i] = acc
	}
	return staged, nil
}

// archiveSnapshot stores the committed vault record for audit. Best effort:
// archive failures are logged, never surfaced.
func (r *Runtime) archiveSnapshot(ctx context.Context, vaultAcc *model.Account) {
	if r.archive == nil || len(vaultAcc.Data) == 0 {
		return
	}
	v, err := wire.UnmarshalVault(vaultAcc.Data)
	if err != nil {
		r.logger.Error("failed to decode committed vault for archiving", "error", err)
		return
	}
	key := fmt.Sprintf("vaults/%s/%d", vaultAcc.Key, v.DepositCount)
	if err := r.archive.Store(ctx, key, bytes.NewReader(vaultAcc.Data)); err != nil {
		r.logger.Error("failed to archive vault snapshot", "vault", vaultAcc.Key, "error", err)
	}
}

func (r *Runtime) lockFor(key model.PublicKey) *sync.Mutex {
	v, _ := r.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}
