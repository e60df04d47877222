package jwt

import (
	"testing"
	"time"

	"imagetales/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestNewToken_RoundTrip(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "test@example.com"}

	token, err := NewToken(user, testSecret, TypeAccess, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := Parse(token, testSecret)
	require.NoError(t, err)

	uid, err := UserID(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uid)
	assert.Equal(t, user.Email, claims[ClaimEmail])
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), claims["exp"].(float64), 2)
	assert.Equal(t, TypeAccess, Type(claims))
	assert.NotEmpty(t, claims[ClaimID])
}

func TestNewToken_UniqueWithinSameSecond(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "test@example.com"}

	first, err := NewToken(user, testSecret, TypeRefresh, time.Hour)
	require.NoError(t, err)
	second, err := NewToken(user, testSecret, TypeRefresh, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestParseAccessToken(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "test@example.com"}

	tests := []struct {
		name    string
		typ     string
		wantErr error
	}{
		{name: "access", typ: TypeAccess},
		{name: "refresh", typ: TypeRefresh, wantErr: ErrWrongTokenType},
		{name: "untyped", typ: "", wantErr: ErrWrongTokenType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := NewToken(user, testSecret, tt.typ, time.Hour)
			require.NoError(t, err)

			parsed, err := ParseAccessToken(token, testSecret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, parsed)
				return
			}
			require.NoError(t, err)
			assert.True(t, parsed.Valid)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	user := models.User{ID: uuid.New(), Email: "test@example.com"}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewToken(user, testSecret, TypeAccess, time.Hour)
		require.NoError(t, err)

		_, err = Parse(token, "other-secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewToken(user, testSecret, TypeAccess, -time.Minute)
		require.NoError(t, err)

		_, err = Parse(token, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Parse("not-a-token", testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserID_MissingClaim(t *testing.T) {
	_, err := UserID(map[string]interface{}{"email": "x"})
	assert.ErrorIs(t, err, ErrInvalidTokenClaims)
}
