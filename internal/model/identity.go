package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// KeySize is the size of an identity key in bytes.
const KeySize = 32

// PublicKey identifies an actor or a storage account.
type PublicKey [KeySize]byte

// ProgramID is the identity of the vault program itself. Storage accounts
// holding vault records must be owned by this key.
var ProgramID = KeyFromSeed("time-locked-vault")

// authoritySeed is the fixed derivation seed for vault authorities.
const authoritySeed = "vault-authority"

// KeyFromSeed derives a deterministic key from an arbitrary seed string.
func KeyFromSeed(seed string) PublicKey {
	return PublicKey(sha256.Sum256([]byte(seed)))
}

// PublicKeyFromBytes converts a byte slice into a PublicKey.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != KeySize {
		return k, ErrInvalidKeyLength
	}
	copy(k[:], b)
	return k, nil
}

// DeriveVaultAuthority computes the derived authority for a vault: the
// identity the ledger recognizes as able to sign outgoing transfers from the
// vault's balance without an external private key. The derivation is fixed,
// so the authority is a pure function of the vault's storage key.
func DeriveVaultAuthority(vault PublicKey) PublicKey {
	h := sha256.New()
	h.Write([]byte(authoritySeed))
	h.Write(vault[:])
	h.Write([]byte{0})
	var k PublicKey
	copy(k[:], h.Sum(nil))
	return k
}

func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether the key is the all-zero key.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}
