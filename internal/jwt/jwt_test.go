package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_GenerateAndGetClaims(t *testing.T) {
	j := New(WithSecretKey("test-secret"), WithExpiration(time.Minute))

	userID := uuid.New()
	ctx := context.Background()

	token, err := j.Generate(ctx, userID, "alice@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = j.GetClaims(ctx, token)
	assert.NoError(t, err)

	claims, err := j.GetClaims(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, PurposeSession, claims.Purpose)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWT_ExpiredToken(t *testing.T) {
	j := New(WithSecretKey("test-secret"), WithExpiration(-time.Minute))
	ctx := context.Background()

	token, err := j.Generate(ctx, uuid.New(), "bob@x.com")
	require.NoError(t, err)

	claims, err := j.GetClaims(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWT_ExpiresAfterLifetime(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	j := New(WithSecretKey("s"), WithExpiration(time.Hour), WithClock(clock))
	ctx := context.Background()

	token, err := j.Generate(ctx, uuid.New(), "c@x.com")
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = j.GetClaims(ctx, token)
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = j.GetClaims(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_InvalidToken(t *testing.T) {
	j := New(WithSecretKey("secret"))
	ctx := context.Background()

	claims, err := j.GetClaims(ctx, "invalid.token.string")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWT_PurposeIsolation(t *testing.T) {
	ctx := context.Background()
	session := New(WithSecretKey("shared"), WithPurpose(PurposeSession))
	reset := New(WithSecretKey("shared"), WithPurpose(PurposePasswordReset))

	userID := uuid.New()

	sessionToken, err := session.Generate(ctx, userID, "a@x.com")
	require.NoError(t, err)
	resetToken, err := reset.Generate(ctx, userID, "a@x.com")
	require.NoError(t, err)

	_, err = session.GetClaims(ctx, sessionToken)
	assert.NoError(t, err)
	_, err = reset.GetClaims(ctx, resetToken)
	assert.NoError(t, err)

	_, err = session.GetClaims(ctx, resetToken)
	assert.ErrorIs(t, err, ErrTokenPurpose)
	_, err = reset.GetClaims(ctx, sessionToken)
	assert.ErrorIs(t, err, ErrTokenPurpose)
}

func TestJWT_WrongSecret(t *testing.T) {
	j1 := New(WithSecretKey("secret1"))
	j2 := New(WithSecretKey("secret2"))
	ctx := context.Background()

	token, err := j1.Generate(ctx, uuid.New(), "d@x.com")
	require.NoError(t, err)

	_, err = j2.GetClaims(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_GenerateWithID(t *testing.T) {
	j := New(WithSecretKey("test-secret"), WithPurpose(PurposePasswordReset))
	ctx := context.Background()
	userID := uuid.New()

	token, err := j.GenerateWithID(ctx, userID, "f@x.com", "reset-jti-1")
	require.NoError(t, err)

	claims, err := j.GetClaims(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "reset-jti-1", claims.ID)
	assert.Equal(t, userID, claims.UserID)

	other, err := j.Generate(ctx, userID, "f@x.com")
	require.NoError(t, err)
	otherClaims, err := j.GetClaims(ctx, other)
	require.NoError(t, err)
	assert.NotEmpty(t, otherClaims.ID)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestJWT_EmptySecret(t *testing.T) {
	j := New(WithSecretKey(""))
	_, err := j.Generate(context.Background(), uuid.New(), "e@x.com")
	assert.ErrorIs(t, err, ErrSigningKeyNotSet)
}

func TestJWT_GetTokenFromRequest(t *testing.T) {
	j := New()
	ctx := context.Background()

	tests := []struct {
		name          string
		header        string
		expectedToken string
		expectedErr   error
	}{
		{"ValidBearer", "Bearer mytoken123", "mytoken123", nil},
		{"LowercaseBearer", "bearer mytoken123", "mytoken123", nil},
		{"NoHeader", "", "", ErrMissingToken},
		{"InvalidFormat", "Token mytoken123", "", ErrInvalidHeader},
		{"TooManyParts", "Bearer a b c", "", ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, err := j.GetTokenFromRequest(ctx, req)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedToken, token)
			}
		})
	}
}
