package jwt

import (
	"testing"
	"time"

	"polaroida/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenAndParse(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "ann@example.com"}

	t.Run("round trip", func(t *testing.T) {
		tok, err := NewToken(user, "secret", KindAccess, time.Minute)
		require.NoError(t, err)

		claims, err := Parse(tok, "secret", KindAccess)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, user.Email, claims.Email)
		assert.WithinDuration(t, time.Now().Add(time.Minute), claims.Expiry, 2*time.Second)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := NewToken(user, "secret", KindAccess, time.Minute)
		require.NoError(t, err)

		_, err = Parse(tok, "other", KindAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := NewToken(user, "secret", KindAccess, -time.Minute)
		require.NoError(t, err)

		_, err = Parse(tok, "secret", KindAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh used as access", func(t *testing.T) {
		tok, err := NewToken(user, "secret", KindRefresh, time.Minute)
		require.NoError(t, err)

		_, err = Parse(tok, "secret", KindAccess)
		assert.ErrorIs(t, err, ErrWrongKind)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := NewToken(user, "secret", KindRefresh, time.Minute)
		require.NoError(t, err)
		b, err := NewToken(user, "secret", KindRefresh, time.Minute)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
