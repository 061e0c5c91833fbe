// Package crypto implements password hashing for the development backend.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost settings.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are tuned for server-side hashing.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// FastParams keep test suites and local seeding quick. Not for real accounts.
var FastParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

const saltLen = 16

// Hash is a salted Argon2id digest of a password.
type Hash struct {
	Salt []byte
	Key  []byte
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns the Argon2id hash of password using the provided salt.
func (p Params) HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// NewHash salts and hashes password.
func (p Params) NewHash(password string) (Hash, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return Hash{}, err
	}
	return Hash{Salt: salt, Key: p.HashPassword([]byte(password), salt)}, nil
}

// Verify reports whether password matches h in constant time.
func (p Params) Verify(h Hash, password string) bool {
	if len(h.Key) == 0 {
		return false
	}
	got := p.HashPassword([]byte(password), h.Salt)
	return subtle.ConstantTimeCompare(got, h.Key) == 1
}
