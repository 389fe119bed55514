package session

import (
	"crypto/subtle"
	"fmt"

	"github.com/open-teleop/robolink/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a presented token against the configured secret.
type Verifier interface {
	Verify(token string) bool
}

type secretVerifier struct {
	secret []byte
}

// NewSecretVerifier compares tokens against a plain shared secret in constant time.
func NewSecretVerifier(secret string) Verifier {
	return &secretVerifier{secret: []byte(secret)}
}

func (v *secretVerifier) Verify(token string) bool {
	if len(v.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.secret, []byte(token)) == 1
}

type bcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier checks tokens against a bcrypt hash of the secret.
func NewBcryptVerifier(hash string) (Verifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid auth.token_hash: %w", err)
	}
	return &bcryptVerifier{hash: []byte(hash)}, nil
}

func (v *bcryptVerifier) Verify(token string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(token)) == nil
}

// HashToken produces a value suitable for auth.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifierFrom picks the bcrypt verifier when a hash is configured.
func VerifierFrom(cfg config.AuthConfig) (Verifier, error) {
	if cfg.TokenHash != "" {
		return NewBcryptVerifier(cfg.TokenHash)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("no auth secret configured")
	}
	return NewSecretVerifier(cfg.Token), nil
}
