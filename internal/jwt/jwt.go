package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A token is only accepted by a JWT configured with the same purpose.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"
)

var (
	ErrMissingToken     = errors.New("authorization header missing")
	ErrInvalidHeader    = errors.New("invalid authorization header format")
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrTokenPurpose     = errors.New("token issued for another purpose")
	ErrMissingSubject   = errors.New("user_id not found in token")
	ErrSigningKeyNotSet = errors.New("signing key is empty")
)

// Claims is the payload carried by every token issued by this package.
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Purpose string    `json:"purpose"`
	jwt.RegisteredClaims
}

// JWT issues and verifies HS256 tokens for a single purpose.
type JWT struct {
	secretKey []byte
	exp       time.Duration
	purpose   string
	now       func() time.Time
}

// Option configures a JWT.
type Option func(*JWT)

// WithSecretKey sets the HMAC signing key.
func WithSecretKey(key string) Option {
	return func(j *JWT) {
		j.secretKey = []byte(key)
	}
}

// WithExpiration sets the token lifetime.
func WithExpiration(exp time.Duration) Option {
	return func(j *JWT) {
		j.exp = exp
	}
}

// WithPurpose scopes issued and accepted tokens to purpose.
func WithPurpose(purpose string) Option {
	return func(j *JWT) {
		j.purpose = purpose
	}
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		if now != nil {
			j.now = now
		}
	}
}

// New creates a JWT. Defaults: one hour lifetime, session purpose.
func New(opts ...Option) *JWT {
	j := &JWT{
		secretKey: []byte("my_super_secret_key"),
		exp:       time.Hour,
		purpose:   PurposeSession,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate signs a token for the given subject.
func (j *JWT) Generate(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	return j.GenerateWithID(ctx, userID, email, uuid.NewString())
}

// GenerateWithID signs a token whose jti is tokenID, so callers can bind the token
// to server-side state and accept it only once.
func (j *JWT) GenerateWithID(ctx context.Context, userID uuid.UUID, email, tokenID string) (string, error) {
	if len(j.secretKey) == 0 {
		return "", ErrSigningKeyNotSet
	}

	now := j.now()
	claims := Claims{
		UserID:  userID,
		Email:   email,
		Purpose: j.purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.exp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// GetClaims verifies signature, expiry and purpose, then returns the claims.
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != j.purpose {
		return nil, ErrTokenPurpose
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrMissingSubject
	}

	return claims, nil
}

// GetTokenFromRequest extracts the bearer token from the Authorization header.
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", ErrInvalidHeader
	}

	return parts[1], nil
}
