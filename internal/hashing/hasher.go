package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash indicates an encoded hash that does not match the expected
// salt$digest layout.
var ErrInvalidHash = errors.New("invalid hash format")

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher derives argon2id digests for one-time codes before they are cached.
type Hasher struct {
	params Argon2Params
}

// NewHasher returns a Hasher with parameters sized for short-lived OTPs.
func NewHasher() *Hasher {
	return &Hasher{
		params: Argon2Params{
			Memory:      32 * 1024,
			Iterations:  2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

// HashOTP returns a self-contained encoded digest (salt$hash, both base64).
func (h *Hasher) HashOTP(otp string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(otp), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return base64.RawURLEncoding.EncodeToString(salt) + "$" + base64.RawURLEncoding.EncodeToString(digest), nil
}

// VerifyOTP reports whether the code matches the encoded digest, using a
// constant time comparison.
func (h *Hasher) VerifyOTP(otp, encoded string) (bool, error) {
	parts := strings.SplitN(encoded, "$", 2)
	if len(parts) != 2 {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(otp), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
