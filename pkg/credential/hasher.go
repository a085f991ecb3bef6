// Package credential salts and hashes secrets with a server-side key.
//
// The same construction is used for passwords and for session tokens: a
// token is the digest of a fresh salt and the user id, so it is opaque to
// clients and cannot be forged without the server key.
package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SaltBytes is the amount of random material behind every salt.
const SaltBytes = 128

// DigestLength is the length of every Hash result in hex characters.
const DigestLength = sha256.Size * 2

const keyInfo = "roomzio credential digest v1"

// ErrEmptySecret is returned when the hasher is built without a server secret.
var ErrEmptySecret = errors.New("credential: server secret must not be empty")

// Hasher computes keyed digests. It is safe for concurrent use.
type Hasher struct {
	key []byte
}

// NewHasher derives the digest key from the configured server secret.
func NewHasher(serverSecret string) (*Hasher, error) {
	if serverSecret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(serverSecret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("credential: derive key: %w", err)
	}
	return &Hasher{key: key}, nil
}

// GenerateSalt returns SaltBytes of crypto-random data, base64 encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("credential: read random: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Hash returns the hex HMAC-SHA256 of salt and secret under the server key.
// A zero byte separates the two inputs; base64 salts never contain one, so
// ("ab", "c") and ("a", "bc") cannot collide.
func (h *Hasher) Hash(salt, secret string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(salt))
	mac.Write([]byte{0})
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether secret hashes to expected under salt, in constant time.
func (h *Hasher) Verify(salt, secret, expected string) bool {
	return hmac.Equal([]byte(h.Hash(salt, secret)), []byte(expected))
}
