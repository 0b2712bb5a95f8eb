package wire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

func TestInstructionRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ins  Instruction
	}{
		{name: "create vault", ins: CreateVault{}},
		{
			name: "deposit",
			ins: Deposit{
				Amount:     100,
				UnlockTime: 1_700_000_100,
				Tag:        model.TagFromString("Vacation"),
			},
		},
		{name: "withdraw", ins: Withdraw{DepositID: 42}},
		{name: "emergency withdraw", ins: EmergencyWithdraw{DepositID: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeInstruction(EncodeInstruction(tt.ins))
			require.NoError(t, err)
			assert.Equal(t, tt.ins, decoded)
		})
	}
}

func TestDecodeInstruction_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "unknown tag", data: []byte{99}},
		{name: "truncated deposit", data: []byte{1, 1, 2, 3}},
		{name: "truncated withdraw", data: []byte{2, 0, 0, 0}},
		{name: "trailing bytes", data: append(EncodeInstruction(CreateVault{}), 0)},
		{name: "deposit with trailing bytes", data: append(EncodeInstruction(Deposit{Amount: 1, UnlockTime: 2}), 0xff)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInstruction(tt.data)
			assert.ErrorIs(t, err, model.ErrInvalidInstructionData)
		})
	}
}

func TestVaultRoundTrip(t *testing.T) {
	auth := model.KeyFromSeed("authority")
	v := &model.Vault{
		Owner:        model.KeyFromSeed("owner"),
		DepositCount: 2,
		Deposits: []model.Deposit{
			{
				ID:         0,
				Depositor:  model.KeyFromSeed("alice"),
				TokenMint:  model.KeyFromSeed("mint"),
				Amount:     100,
				UnlockTime: 1_700_000_100,
				Withdrawn:  true,
				Tag:        model.TagFromString("Rent"),
				CreatedAt:  1_700_000_000,
			},
			{
				ID:         1,
				Depositor:  model.KeyFromSeed("bob"),
				TokenMint:  model.KeyFromSeed("mint"),
				Amount:     1,
				UnlockTime: 1_800_000_000,
				Tag:        model.TagFromString("Vacation"),
				CreatedAt:  1_700_000_050,
			},
		},
		ReentrancyGuard:    true,
		EmergencyAuthority: &auth,
	}

	got, err := UnmarshalVault(MarshalVault(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestVaultRoundTrip_FreshVault(t *testing.T) {
	v := &model.Vault{Owner: model.KeyFromSeed("owner"), Deposits: []model.Deposit{}}

	got, err := UnmarshalVault(MarshalVault(v))
	require.NoError(t, err)
	assert.Equal(t, v.Owner, got.Owner)
	assert.Zero(t, got.DepositCount)
	assert.Empty(t, got.Deposits)
	assert.False(t, got.ReentrancyGuard)
	assert.Nil(t, got.EmergencyAuthority)
}

// The layout is a wire contract: owner, count, length-prefixed deposits,
// guard byte, authority option.
func TestMarshalVault_Layout(t *testing.T) {
	owner := model.KeyFromSeed("owner")
	v := &model.Vault{Owner: owner, DepositCount: 3, ReentrancyGuard: true}

	data := MarshalVault(v)
	require.Len(t, data, 32+8+4+1+1)

	assert.Equal(t, owner[:], data[:32])
	assert.Equal(t, uint64(3), binary.LittleEndian.Uint64(data[32:40]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, byte(1), data[44])
	assert.Equal(t, byte(0), data[45])
}

func TestUnmarshalVault_Corrupt(t *testing.T) {
	v := &model.Vault{Owner: model.KeyFromSeed("owner")}
	valid := MarshalVault(v)

	lyingLength := make([]byte, len(valid))
	copy(lyingLength, valid)
	binary.LittleEndian.PutUint32(lyingLength[40:44], 1_000_000)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated owner", data: valid[:16]},
		{name: "missing option byte", data: valid[:len(valid)-1]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0)},
		{name: "length prefix exceeds data", data: lyingLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalVault(tt.data)
			assert.ErrorIs(t, err, ErrTruncatedRecord)
		})
	}
}
