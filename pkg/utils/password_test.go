package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))

	ok, err := VerifyPassword("secret1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("secret2", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnmatchableHash(t *testing.T) {
	for _, pw := range []string{"", "secret1", "password", "AAAA"} {
		ok, err := VerifyPassword(pw, UnmatchableHash)
		require.NoError(t, err, "hash must parse so the full computation runs")
		assert.False(t, ok)
	}

	fresh, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.Equal(t, strings.SplitN(fresh, "$", 5)[:4], strings.SplitN(UnmatchableHash, "$", 5)[:4])
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("secret1")
	require.NoError(t, err)
	b, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := VerifyPassword("secret1", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("nope", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	for _, h := range []string{"", "plaintext", "$argon2i$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=19$garbage$a$b"} {
		ok, err := VerifyPassword("secret1", h)
		assert.False(t, ok, h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("secret"))

	err := ValidatePassword("short")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "password", vErr.Field)
	assert.Equal(t, "Password must be at least 6 characters", err.Error())
}
