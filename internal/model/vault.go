package model

// TagSize is the fixed size of a deposit tag.
const TagSize = 32

// Tag is an opaque caller-supplied label attached to a deposit. The vault
// assigns it no meaning.
type Tag [TagSize]byte

// TagFromString builds a Tag from a string, truncating or zero-padding to
// TagSize bytes.
func TagFromString(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

// Vault is the per-owner custody record aggregating all deposits and
// guard/authority state. One vault lives in one program-owned storage
// account and is deserialized, mutated and re-serialized on every operation.
type Vault struct {
	// Owner is the identity that created the vault. Set once, never mutated.
	Owner PublicKey
	// DepositCount is the monotonically increasing deposit counter; it is
	// also the id assigned to the next deposit.
	DepositCount uint64
	// Deposits is append-only; insertion order is id order.
	Deposits []Deposit
	// ReentrancyGuard is true only while a mutating operation is in flight.
	ReentrancyGuard bool
	// EmergencyAuthority, when present, may bypass the time lock. No
	// instruction sets it; it can only be provisioned out-of-band.
	EmergencyAuthority *PublicKey
}

// Deposit is one time-locked unit of custody. All fields except Withdrawn
// are fixed at creation.
type Deposit struct {
	ID         uint64
	Depositor  PublicKey
	TokenMint  PublicKey
	Amount     uint64
	UnlockTime int64
	Withdrawn  bool
	Tag        Tag
	CreatedAt  int64
}

// FindDeposit returns the deposit with the given id, or nil. Linear scan:
// ids are dense and vaults are small.
func (v *Vault) FindDeposit(id uint64) *Deposit {
	for i := range v.Deposits {
		if v.Deposits[i].ID == id {
			return &v.Deposits[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the vault.
func (v *Vault) Clone() *Vault {
	c := *v
	c.Deposits = make([]Deposit, len(v.Deposits))
	copy(c.Deposits, v.Deposits)
	if v.EmergencyAuthority != nil {
		auth := *v.EmergencyAuthority
		c.EmergencyAuthority = &auth
	}
	return &c
}
