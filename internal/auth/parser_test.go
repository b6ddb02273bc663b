package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightserv/facilityops/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser(testSecret)
	userID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"name": "Dana Ops",
			"role": string(model.RoleFSM),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		principal, err := parser.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, userID, principal.UserID)
		assert.Equal(t, "Dana Ops", principal.Name)
		assert.True(t, principal.IsFSM())
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"sub":  userID.String(),
			"role": string(model.RoleAdmin),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		_, err := parser.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"role": string(model.RoleAdmin),
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})
		_, err := parser.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"role": "SUPERUSER",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		_, err := parser.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("client role is not issued as a staff token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"role": string(model.RoleClient),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		_, err := parser.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("malformed subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "not-a-uuid",
			"role": string(model.RoleAdmin),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		_, err := parser.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := parser.Parse("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
