// Package vault implements the time-locked vault state machine: instruction
// dispatch, the deposit ledger lifecycle, actor authorization and the
// reentrancy guard. It owns no storage and no transport; the host stages the
// referenced accounts, verifies signatures, and commits mutations only when
// Execute returns nil.
package vault

import (
	"context"
	"fmt"
	"math"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/logger"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
	"github.com/ARTHON9611/Time-Locked-Vault/internal/wire"
)

// Positional account indices, per operation. The order is part of the
// external contract and must not change.
const (
	idxSigner = 0
	idxVault  = 1

	depositIdxSource      = 2
	depositIdxDestination = 3
	depositAccounts       = 7

	withdrawIdxDestination = 2
	withdrawIdxSource      = 3
	withdrawAccounts       = 6

	emergencyIdxDestination = 2
	emergencyIdxSource      = 3
	emergencyIdxDepositor   = 5
	emergencyAccounts       = 6

	createAccounts = 3
)

// Call is one staged invocation: raw instruction bytes plus the referenced
// accounts in positional order, with signer flags already verified by the
// host.
type Call struct {
	Instruction []byte
	Accounts    []*model.Account
}

// Service executes vault operations against staged accounts.
type Service struct {
	ledger model.Ledger
	clock  model.Clock
	logger *logger.Logger
}

// New creates a vault service with its external collaborators.
func New(ledger model.Ledger, clock model.Clock, logger *logger.Logger) *Service {
	return &Service{
		ledger: ledger,
		clock:  clock,
		logger: logger,
	}
}

// Execute decodes the instruction and routes it to exactly one handler,
// returning the handler's result unchanged.
func (s *Service) Execute(ctx context.Context, call *Call) error {
	ins, err := wire.DecodeInstruction(call.Instruction)
	if err != nil {
		return err
	}

	switch v := ins.(type) {
	case wire.CreateVault:
		return s.createVault(ctx, call)
	case wire.Deposit:
		return s.deposit(ctx, call, v)
	case wire.Withdraw:
		return s.withdraw(ctx, call, v)
	case wire.EmergencyWithdraw:
		return s.emergencyWithdraw(ctx, call, v)
	default:
		return model.ErrInvalidInstructionData
	}
}

func (s *Service) createVault(ctx context.Context, call *Call) error {
	if err := need(call, createAccounts); err != nil {
		return err
	}
	owner := call.Accounts[idxSigner]
	vaultAcc := call.Accounts[idxVault]

	if !owner.Signer {
		return model.ErrMissingSignature
	}
	if vaultAcc.Owner != model.ProgramID {
		return model.ErrWrongAccountOwner
	}
	if len(vaultAcc.Data) != 0 {
		return model.ErrAccountAlreadyInUse
	}

	v := &model.Vault{Owner: owner.Key}
	vaultAcc.Data = wire.MarshalVault(v)

	s.logger.Info("vault created", "vault", vaultAcc.Key, "owner", owner.Key)
	return nil
}

func (s *Service) deposit(ctx context.Context, call *Call, ins wire.Deposit) error {
	if err := need(call, depositAccounts); err != nil {
		return err
	}
	depositor := call.Accounts[idxSigner]
	vaultAcc := call.Accounts[idxVault]
	source := call.Accounts[depositIdxSource]
	destination := call.Accounts[depositIdxDestination]

	if !depositor.Signer {
		return model.ErrMissingSignature
	}

	v, err := s.loadGuarded(vaultAcc)
	if err != nil {
		return err
	}

	if ins.Amount == 0 {
		return model.ErrInvalidAmount
	}

	now, err := s.clock.Now(ctx)
	if err != nil {
		return fmt.Errorf("failed to read clock: %w", err)
	}
	if ins.UnlockTime <= now {
		return model.ErrInvalidUnlockTime
	}

	balance, err := s.ledger.Balance(ctx, source.Key)
	if err != nil {
		return fmt.Errorf("failed to read source balance: %w", err)
	}
	if balance.Amount < ins.Amount {
		return model.ErrInsufficientFunds
	}

	deposit := model.Deposit{
		ID:         v.DepositCount,
		Depositor:  depositor.Key,
		TokenMint:  balance.Mint,
		Amount:     ins.Amount,
		UnlockTime: ins.UnlockTime,
		Tag:        ins.Tag,
		CreatedAt:  now,
	}
	v.Deposits = append(v.Deposits, deposit)
	if v.DepositCount == math.MaxUint64 {
		return model.ErrMathOverflow
	}
	v.DepositCount++

	// Stage the guarded state before control leaves the vault, so a nested
	// call re-entering this vault observes the guard set.
	vaultAcc.Data = wire.MarshalVault(v)

	if err := s.ledger.Transfer(ctx, source.Key, destination.Key, ins.Amount, depositor.Key); err != nil {
		return fmt.Errorf("failed to transfer into vault custody: %w", err)
	}

	v.ReentrancyGuard = false
	vaultAcc.Data = wire.MarshalVault(v)

	s.logger.Info("deposit locked",
		"vault", vaultAcc.Key,
		"deposit_id", deposit.ID,
		"amount", ins.Amount,
		"unlock_time", ins.UnlockTime)
	return nil
}

func (s *Service) withdraw(ctx context.Context, call *Call, ins wire.Withdraw) error {
	if err := need(call, withdrawAccounts); err != nil {
		return err
	}
	caller := call.Accounts[idxSigner]
	vaultAcc := call.Accounts[idxVault]
	destination := call.Accounts[withdrawIdxDestination]
	source := call.Accounts[withdrawIdxSource]

	if !caller.Signer {
		return model.ErrMissingSignature
	}

	v, err := s.loadGuarded(vaultAcc)
	if err != nil {
		return err
	}

	deposit := v.FindDeposit(ins.DepositID)
	if deposit == nil {
		return model.ErrDepositNotFound
	}
	// Authorization is anchored to the deposit's recorded depositor, not the
	// vault owner.
	if deposit.Depositor != caller.Key {
		return model.ErrUnauthorizedWithdrawal
	}
	if deposit.Withdrawn {
		return model.ErrAlreadyWithdrawn
	}

	now, err := s.clock.Now(ctx)
	if err != nil {
		return fmt.Errorf("failed to read clock: %w", err)
	}
	if deposit.UnlockTime > now {
		return model.ErrUnlockTimeNotReached
	}

	deposit.Withdrawn = true
	vaultAcc.Data = wire.MarshalVault(v)

	// The vault authorizes its own outgoing transfer through its derived
	// authority; no external key is involved.
	authority := model.DeriveVaultAuthority(vaultAcc.Key)
	if err := s.ledger.Transfer(ctx, source.Key, destination.Key, deposit.Amount, authority); err != nil {
		return fmt.Errorf("failed to transfer out of vault custody: %w", err)
	}

	v.ReentrancyGuard = false
	vaultAcc.Data = wire.MarshalVault(v)

	s.logger.Info("withdrawal released",
		"vault", vaultAcc.Key,
		"deposit_id", ins.DepositID,
		"amount", deposit.Amount)
	return nil
}

func (s *Service) emergencyWithdraw(ctx context.Context, call *Call, ins wire.EmergencyWithdraw) error {
	if err := need(call, emergencyAccounts); err != nil {
		return err
	}
	authorityAcc := call.Accounts[idxSigner]
	vaultAcc := call.Accounts[idxVault]
	destination := call.Accounts[emergencyIdxDestination]
	source := call.Accounts[emergencyIdxSource]
	depositorRef := call.Accounts[emergencyIdxDepositor]

	if !authorityAcc.Signer {
		return model.ErrMissingSignature
	}

	v, err := s.loadGuarded(vaultAcc)
	if err != nil {
		return err
	}

	// The emergency authority has no setter in the instruction set; unless it
	// was provisioned out-of-band this check makes the path unreachable.
	if v.EmergencyAuthority == nil || *v.EmergencyAuthority != authorityAcc.Key {
		return model.ErrUnauthorizedWithdrawal
	}

	deposit := v.FindDeposit(ins.DepositID)
	if deposit == nil {
		return model.ErrDepositNotFound
	}
	if deposit.Withdrawn {
		return model.ErrAlreadyWithdrawn
	}
	// The depositor reference binds the release to the deposit's recorded
	// depositor at the identity level only; the destination balance account
	// is taken as supplied.
	if deposit.Depositor != depositorRef.Key {
		return model.ErrUnauthorizedWithdrawal
	}

	// No unlock-time check: this path is the designated time-lock bypass.
	deposit.Withdrawn = true
	vaultAcc.Data = wire.MarshalVault(v)

	authority := model.DeriveVaultAuthority(vaultAcc.Key)
	if err := s.ledger.Transfer(ctx, source.Key, destination.Key, deposit.Amount, authority); err != nil {
		return fmt.Errorf("failed to transfer out of vault custody: %w", err)
	}

	v.ReentrancyGuard = false
	vaultAcc.Data = wire.MarshalVault(v)

	s.logger.Info("emergency withdrawal released",
		"vault", vaultAcc.Key,
		"deposit_id", ins.DepositID,
		"amount", deposit.Amount,
		"authority", authorityAcc.Key)
	return nil
}

// loadGuarded verifies program ownership of the vault account, decodes the
// record, and trips or arms the reentrancy guard. The armed guard is staged
// by the caller before any nested call, and cleared only on success.
func (s *Service) loadGuarded(vaultAcc *model.Account) (*model.Vault, error) {
	if vaultAcc.Owner != model.ProgramID {
		return nil, model.ErrWrongAccountOwner
	}
	v, err := wire.UnmarshalVault(vaultAcc.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode vault record: %w", err)
	}
	if v.ReentrancyGuard {
		return nil, model.ErrReentrancyDetected
	}
	v.ReentrancyGuard = true
	return v, nil
}

func need(call *Call, n int) error {
	if len(call.Accounts) < n {
		return model.ErrNotEnoughAccounts
	}
	return nil
}
