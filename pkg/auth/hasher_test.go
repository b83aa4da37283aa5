package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	// MinCost keeps the test fast; the cost only changes work factor.
	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("hash and verify round-trip", func(t *testing.T) {
		t.Parallel()

		hash, err := hasher.Hash("Passw0rd!")
		require.NoError(t, err)
		assert.True(t, hasher.Verify(hash, "Passw0rd!"))
		assert.False(t, hasher.Verify(hash, "wrong"))
	})

	t.Run("verify against empty hash always fails", func(t *testing.T) {
		t.Parallel()

		assert.False(t, hasher.Verify(nil, "anything"))
		assert.False(t, hasher.Verify([]byte{}, "anything"))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		t.Parallel()

		h1, err := hasher.Hash("same-password")
		require.NoError(t, err)
		h2, err := hasher.Hash("same-password")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		t.Parallel()

		h, err := NewBcryptHasher(99)
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, h.cost)
	})
}
