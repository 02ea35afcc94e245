package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndCompare(t *testing.T) {
	h := &PasswordHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)

	assert.True(t, h.Compare(hash, "Passw0rd!"))
	assert.False(t, h.Compare(hash, "passw0rd!"))
	assert.False(t, h.Compare("not-a-hash", "Passw0rd!"))
}

func TestNewPasswordHasher_UsesCost12(t *testing.T) {
	h := NewPasswordHasher()
	assert.Equal(t, 12, h.Cost)

	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
}
