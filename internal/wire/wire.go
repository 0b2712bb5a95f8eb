// Package wire implements the deterministic binary layout of vault records
// and instructions. The layout is part of the external contract: records are
// decoded, mutated and re-encoded on every operation, so encode and decode
// must be exact inverses.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

// ErrTruncatedRecord is returned when a stored vault record is shorter than
// its own layout claims.
var ErrTruncatedRecord = errors.New("truncated vault record")

// Operation tags, in wire order.
const (
	tagCreateVault       = 0
	tagDeposit           = 1
	tagWithdraw          = 2
	tagEmergencyWithdraw = 3
)

// Instruction is one decoded vault operation.
type Instruction interface {
	isInstruction()
}

// CreateVault initializes a fresh vault record.
type CreateVault struct{}

// Deposit locks Amount units until UnlockTime.
type Deposit struct {
	Amount     uint64
	UnlockTime int64
	Tag        model.Tag
}

// Withdraw releases a matured deposit to its depositor.
type Withdraw struct {
	DepositID uint64
}

// EmergencyWithdraw releases a deposit bypassing the time lock.
type EmergencyWithdraw struct {
	DepositID uint64
}

func (CreateVault) isInstruction()       {}
func (Deposit) isInstruction()           {}
func (Withdraw) isInstruction()          {}
func (EmergencyWithdraw) isInstruction() {}

// DecodeInstruction parses instruction bytes. It fails with
// model.ErrInvalidInstructionData if the input is empty, the tag is unknown,
// a field is truncated, or trailing bytes remain.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, model.ErrInvalidInstructionData
	}
	r := reader{buf: data[1:]}

	var ins Instruction
	switch data[0] {
	case tagCreateVault:
		ins = CreateVault{}
	case tagDeposit:
		d := Deposit{
			Amount:     r.u64(),
			UnlockTime: r.i64(),
		}
		r.bytes(d.Tag[:])
		ins = d
	case tagWithdraw:
		ins = Withdraw{DepositID: r.u64()}
	case tagEmergencyWithdraw:
		ins = EmergencyWithdraw{DepositID: r.u64()}
	default:
		return nil, model.ErrInvalidInstructionData
	}

	if r.err != nil || len(r.buf) != 0 {
		return nil, model.ErrInvalidInstructionData
	}
	return ins, nil
}

// EncodeInstruction is the inverse of DecodeInstruction.
func EncodeInstruction(ins Instruction) []byte {
	var w writer
	switch v := ins.(type) {
	case CreateVault:
		w.u8(tagCreateVault)
	case Deposit:
		w.u8(tagDeposit)
		w.u64(v.Amount)
		w.i64(v.UnlockTime)
		w.bytes(v.Tag[:])
	case Withdraw:
		w.u8(tagWithdraw)
		w.u64(v.DepositID)
	case EmergencyWithdraw:
		w.u8(tagEmergencyWithdraw)
		w.u64(v.DepositID)
	}
	return w.buf
}

// MarshalVault serializes a vault record: owner, deposit count, the
// length-prefixed deposit sequence, the guard byte, and the optional
// emergency authority.
func MarshalVault(v *model.Vault) []byte {
	var w writer
	w.bytes(v.Owner[:])
	w.u64(v.DepositCount)
	w.u32(uint32(len(v.Deposits)))
	for i := range v.Deposits {
		d := &v.Deposits[i]
		w.u64(d.ID)
		w.bytes(d.Depositor[:])
		w.bytes(d.TokenMint[:])
		w.u64(d.Amount)
		w.i64(d.UnlockTime)
		w.bool(d.Withdrawn)
		w.bytes(d.Tag[:])
		w.i64(d.CreatedAt)
	}
	w.bool(v.ReentrancyGuard)
	if v.EmergencyAuthority != nil {
		w.u8(1)
		w.bytes(v.EmergencyAuthority[:])
	} else {
		w.u8(0)
	}
	return w.buf
}

// UnmarshalVault is the inverse of MarshalVault.
func UnmarshalVault(data []byte) (*model.Vault, error) {
	r := reader{buf: data}
	v := &model.Vault{}

	r.bytes(v.Owner[:])
	v.DepositCount = r.u64()
	n := r.u32()
	if r.err != nil {
		return nil, ErrTruncatedRecord
	}
	// A deposit occupies at least its fixed-size fields; reject length
	// prefixes the remaining bytes cannot possibly satisfy.
	if uint64(n)*depositSize > uint64(len(r.buf)) {
		return nil, ErrTruncatedRecord
	}
	v.Deposits = make([]model.Deposit, 0, n)
	for i := uint32(0); i < n; i++ {
		var d model.Deposit
		d.ID = r.u64()
		r.bytes(d.Depositor[:])
		r.bytes(d.TokenMint[:])
		d.Amount = r.u64()
		d.UnlockTime = r.i64()
		d.Withdrawn = r.bool()
		r.bytes(d.Tag[:])
		d.CreatedAt = r.i64()
		v.Deposits = append(v.Deposits, d)
	}
	v.ReentrancyGuard = r.bool()
	switch r.u8() {
	case 0:
	case 1:
		var auth model.PublicKey
		r.bytes(auth[:])
		if r.err == nil {
			v.EmergencyAuthority = &auth
		}
	default:
		return nil, ErrTruncatedRecord
	}

	if r.err != nil || len(r.buf) != 0 {
		return nil, ErrTruncatedRecord
	}
	return v, nil
}

// depositSize is the encoded size of one deposit record.
const depositSize = 8 + model.KeySize + model.KeySize + 8 + 8 + 1 + model.TagSize + 8

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)      { w.buf = append(w.buf, v) }
func (w *writer) bytes(b []byte)  { w.buf = append(w.buf, b...) }
func (w *writer) u32(v uint32)    { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64)    { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) i64(v int64)     { w.u64(uint64(v)) }
func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil || len(r.buf) < n {
		r.err = ErrTruncatedRecord
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) bytes(dst []byte) {
	b := r.take(len(dst))
	if b != nil {
		copy(dst, b)
	}
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) i64() int64 { return int64(r.u64()) }

func (r *reader) bool() bool { return r.u8() != 0 }
