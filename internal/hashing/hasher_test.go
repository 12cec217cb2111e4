package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashOTP_RoundTrip(t *testing.T) {
	h := NewHasher()

	encoded, err := h.HashOTP("483920")
	require.NoError(t, err)
	assert.NotContains(t, encoded, "483920", "plaintext must not appear in the hash")

	ok, err := h.VerifyOTP("483920", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyOTP("000000", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashOTP_SaltedPerCall(t *testing.T) {
	h := NewHasher()

	first, err := h.HashOTP("483920")
	require.NoError(t, err)
	second, err := h.HashOTP("483920")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyOTP_MalformedHash(t *testing.T) {
	h := NewHasher()

	_, err := h.VerifyOTP("483920", "not-a-valid-encoding")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
