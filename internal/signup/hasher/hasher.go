// Package hasher provides the one-way credential transforms used at
// registration. Hashers are deterministic: identical (password, salt) inputs
// always yield the same digest, which is what lets the repository store a
// comparable credential. Plaintext never leaves this package.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// Hasher turns a plaintext secret and salt into a stored credential digest.
type Hasher interface {
	Hash(password, salt string) string
}

// SHA256 hashes the concatenation of salt and password with a single SHA-256
// round. It matches the legacy credential format already present in user
// records.
type SHA256 struct{}

func NewSHA256() SHA256 { return SHA256{} }

func (SHA256) Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// pbkdf2 parameters follow current OWASP guidance for PBKDF2-HMAC-SHA256.
const (
	pbkdf2Iterations = 600_000
	pbkdf2KeyLength  = 32
)

// PBKDF2 is the key-stretched alternative for new deployments; still fully
// deterministic for a fixed salt.
type PBKDF2 struct{}

func NewPBKDF2() PBKDF2 { return PBKDF2{} }

func (PBKDF2) Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// ForName returns the hasher selected by configuration; unknown names fall
// back to the legacy SHA-256 format.
func ForName(name string) Hasher {
	if name == "pbkdf2" {
		return NewPBKDF2()
	}
	return NewSHA256()
}
