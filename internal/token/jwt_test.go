package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

func TestJWT_IssueAndVerifySigner(t *testing.T) {
	j := NewJWT("secret")
	key := model.KeyFromSeed("depositor")

	tok, err := j.IssueSigner(key)
	require.NoError(t, err)

	got, err := j.VerifySigner(tok)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestJWT_VerifySigner_Invalid(t *testing.T) {
	j := NewJWT("secret")
	key := model.KeyFromSeed("depositor")

	valid, err := j.IssueSigner(key)
	require.NoError(t, err)

	wrongType := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Signer:    key.String(),
		TokenType: "refresh",
	})
	wrongTypeString, err := wrongType.SignedString([]byte("secret"))
	require.NoError(t, err)

	badSigner := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Signer:    "zz-not-hex",
		TokenType: typeSigner,
	})
	badSignerString, err := badSigner.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: issueWith(t, "other-secret", key)},
		{name: "wrong token type", token: wrongTypeString},
		{name: "malformed signer claim", token: badSignerString},
		{name: "tampered", token: valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.VerifySigner(tt.token)
			assert.ErrorIs(t, err, model.ErrInvalidSignerToken)
		})
	}
}

func issueWith(t *testing.T, secret string, key model.PublicKey) string {
	t.Helper()
	tok, err := NewJWT(secret).IssueSigner(key)
	require.NoError(t, err)
	return tok
}
