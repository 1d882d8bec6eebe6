package state

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// SecretboxProtector protects properties with NaCl secretbox
// (XSalsa20-Poly1305). Unlike JWTProtector the payload is encrypted, not just
// signed, so nothing inside the property bag is visible to the browser or to
// Slack while the state is in flight.
type SecretboxProtector struct {
	key [32]byte
}

// NewSecretboxProtector creates an encrypting state protector.
// The key must be exactly 32 bytes.
func NewSecretboxProtector(key []byte) (*SecretboxProtector, error) {
	if len(key) != 32 {
		return nil, errors.New("secretbox key must be 32 bytes")
	}
	p := &SecretboxProtector{}
	copy(p.key[:], key)
	return p, nil
}

// Protect encrypts the properties into an opaque base64 string.
func (p *SecretboxProtector) Protect(props *Properties) (string, error) {
	if props == nil {
		return "", ErrInvalidPayload
	}

	plaintext, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties: %w", err)
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &p.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unprotect decrypts and authenticates a blob produced by Protect.
func (p *SecretboxProtector) Unprotect(value string) (*Properties, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(sealed) < 24 {
		return nil, ErrInvalidPayload
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &p.key)
	if !ok {
		return nil, ErrInvalidPayload
	}

	var props Properties
	if err := json.Unmarshal(plaintext, &props); err != nil {
		return nil, ErrInvalidPayload
	}
	return &props, nil
}
