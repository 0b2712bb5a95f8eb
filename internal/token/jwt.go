package token

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ARTHON9611/Time-Locked-Vault/internal/model"
)

// Claims represents signer token claims binding a public key.
type Claims struct {
	jwt.RegisteredClaims
	Signer    string `json:"signer"`
	TokenType string `json:"typ"`
}

// JWT implements model.SignerVerifier backed by symmetric HMAC. A signer
// token is the host-side stand-in for a transaction signature: presenting a
// valid token for a key proves the caller controls that identity.
type JWT struct {
	secretKey string
}

var _ model.SignerVerifier = (*JWT)(nil)

const (
	signerTTL  = 5 * time.Minute
	typeSigner = "signer"
)

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: secretKey}
}

// IssueSigner creates a short-lived token binding the given signer key.
func (j *JWT) IssueSigner(key model.PublicKey) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(signerTTL)),
		},
		Signer:    key.String(),
		TokenType: typeSigner,
	})

	tokenString, err := t.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign signer token: %w", err)
	}

	return tokenString, nil
}

// VerifySigner validates a token and extracts the signer key it binds.
func (j *JWT) VerifySigner(tokenString string) (model.PublicKey, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return model.PublicKey{}, fmt.Errorf("%w: %w", model.ErrInvalidSignerToken, err)
	}
	if !t.Valid {
		return model.PublicKey{}, model.ErrInvalidSignerToken
	}
	if claims.TokenType != typeSigner {
		return model.PublicKey{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrInvalidSignerToken, claims.TokenType)
	}

	raw, err := hex.DecodeString(claims.Signer)
	if err != nil {
		return model.PublicKey{}, fmt.Errorf("%w: malformed signer claim", model.ErrInvalidSignerToken)
	}
	key, err := model.PublicKeyFromBytes(raw)
	if err != nil {
		return model.PublicKey{}, fmt.Errorf("%w: malformed signer claim", model.ErrInvalidSignerToken)
	}
	return key, nil
}
