package model

import "errors"

// Error is a vault error with a stable numeric code. Codes are part of the
// external contract and never renumbered; callers dispatch on them to decide
// between retrying (UnlockTimeNotReached) and giving up (AlreadyWithdrawn).
type Error struct {
	Code uint32
	Text string
}

func (e *Error) Error() string {
	return e.Text
}

// The closed vault error enumeration, in stable code order.
var (
	ErrUnlockTimeNotReached    = &Error{Code: 0, Text: "unlock time has not been reached"}
	ErrUnauthorizedWithdrawal  = &Error{Code: 1, Text: "only the depositor can withdraw funds"}
	ErrDepositNotFound         = &Error{Code: 2, Text: "deposit not found"}
	ErrInvalidAmount           = &Error{Code: 3, Text: "invalid deposit amount"}
	ErrAlreadyWithdrawn        = &Error{Code: 4, Text: "deposit already withdrawn"}
	ErrInvalidUnlockTime       = &Error{Code: 5, Text: "invalid unlock time"}
	ErrReentrancyDetected      = &Error{Code: 6, Text: "reentrancy detected"}
	ErrInvalidInstructionData  = &Error{Code: 7, Text: "invalid instruction data"}
	ErrAccountAlreadyInUse     = &Error{Code: 8, Text: "account already in use"}
	ErrInsufficientFunds       = &Error{Code: 9, Text: "insufficient funds"}
	ErrMathOverflow            = &Error{Code: 10, Text: "math overflow"}
)

// Host-level errors. These are not part of the vault's closed enumeration;
// the host checks them before a handler runs or while resolving accounts.
var (
	ErrMissingSignature   = errors.New("missing required signature")
	ErrWrongAccountOwner  = errors.New("account is not owned by the vault program")
	ErrNotEnoughAccounts  = errors.New("not enough accounts supplied")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidKeyLength   = errors.New("invalid key length")
	ErrInvalidAuthority   = errors.New("authority cannot sign for source account")
	ErrMintMismatch       = errors.New("token accounts have different mints")
	ErrInvalidSignerToken = errors.New("invalid signer token")
)
