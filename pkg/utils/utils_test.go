package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("L1234567")
	require.NoError(t, err)
	assert.NotEqual(t, "L1234567", h)

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)

	assert.True(t, CheckPassword("L1234567", h))
	assert.False(t, CheckPassword("L1234568", h))
	assert.False(t, CheckPassword("L1234567", "not-a-hash"))
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID(NewID()))
	assert.True(t, IsUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, IsUUID("6ba7b8109dad11d180b400c04fd430c8"))
	assert.False(t, IsUUID("urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, IsUUID("123"))
	assert.False(t, IsUUID(""))
}
