package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)
	assert.True(t, h.Verify(hash, "password1"))
	assert.False(t, h.Verify(hash, "password2"))

	again, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")
}

func TestBcryptNeedsRehash(t *testing.T) {
	weak := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := weak.Hash("password1")
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(hash))
	assert.True(t, BcryptHasher{Cost: bcrypt.MinCost + 1}.NeedsRehash(hash))
	assert.False(t, weak.NeedsRehash("not-a-hash"))
}
