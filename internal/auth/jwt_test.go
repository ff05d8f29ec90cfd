package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret-0123456789abcdef", time.Hour)

	token, err := m.Generate("op-1", "admin")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret-0123456789abcdef", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("another-secret-0123456789abcd", time.Hour)
		token, err := other.Generate("op-1", "admin")
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret-0123456789abcdef", -time.Minute)
		token, err := expired.Generate("op-1", "admin")
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
