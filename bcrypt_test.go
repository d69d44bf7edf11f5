package accounts_test

import (
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a valid password", func(t *testing.T) {
		hash, err := accounts.HashPassword("sup3r-secret")
		require.NoError(t, err)

		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "sup3r-secret", hash)
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		_, err := accounts.HashPassword("")
		assert.ErrorIs(t, err, accounts.ErrNoEmptyString)
	})

	t.Run("produces distinct hashes for the same input", func(t *testing.T) {
		first, err := accounts.HashPassword("sup3r-secret")
		require.NoError(t, err)

		second, err := accounts.HashPassword("sup3r-secret")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := accounts.HashPassword("sup3r-secret")
	require.NoError(t, err)

	t.Run("accepts the original password", func(t *testing.T) {
		assert.NoError(t, accounts.ComparePasswordAndHash("sup3r-secret", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		err := accounts.ComparePasswordAndHash("not-the-password", hash)
		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	})

	t.Run("rejects garbage hashes", func(t *testing.T) {
		err := accounts.ComparePasswordAndHash("sup3r-secret", "not-a-bcrypt-hash")
		assert.Error(t, err)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	hash := accounts.RandomPasswordHash()
	assert.NotEmpty(t, hash)

	// Nothing should verify against a random hash.
	assert.Error(t, accounts.ComparePasswordAndHash("", hash))
	assert.Error(t, accounts.ComparePasswordAndHash("guess", hash))
}
