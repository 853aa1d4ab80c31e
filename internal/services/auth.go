package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=services

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsernameOrEmail(ctx context.Context, username *string, email *string) (*models.UserDB, error) // Returns nil, nil when nothing matches
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)                             // Returns nil, nil when nothing matches
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, user *models.UserDB) error
	SetOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, userID uuid.UUID) error
	ConsumeOTP(ctx context.Context, userID uuid.UUID, code string, now time.Time, resetTokenID string) error // ErrNotFound when the code no longer matches
	UpdatePassword(ctx context.Context, userID uuid.UUID, resetTokenID, passwordHash string) error          // ErrNotFound when the token was already redeemed
	Update(ctx context.Context, userID uuid.UUID, upd models.UserUpdate) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, email string) (string, error)
}

// AuthService handles registration and login.
type AuthService struct {
	reader UserReader
	writer UserWriter
	jwt    JWTGenerator
	events EventPublisher
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, jwt JWTGenerator, events EventPublisher) *AuthService {
	if events == nil {
		events = NewKafkaEventPublisher(nil)
	}
	return &AuthService{
		reader: reader,
		writer: writer,
		jwt:    jwt,
		events: events,
	}
}

// Register registers a new user and returns a session token for it.
func (svc *AuthService) Register(ctx context.Context, reg models.Registration) (string, error) {
	email := models.NormalizeEmail(reg.Email)

	user, err := svc.reader.GetByUsernameOrEmail(ctx, &reg.Username, &email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return "", err
	}
	if user != nil {
		logger.Log.Errorw("user already exists", "username", reg.Username)
		return "", ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return "", err
	}

	user = &models.UserDB{
		UserID:       uuid.New(),
		Username:     reg.Username,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        email,
		PhoneNumber:  reg.PhoneNumber,
		Address:      reg.Address,
		Category:     reg.Category,
		PasswordHash: string(hashedPassword),
	}

	if err := svc.writer.Save(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return "", ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return "", err
	}

	token, err := svc.jwt.Generate(ctx, user.UserID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	svc.events.Publish(ctx, models.EventUserRegistered, user.UserID, user.UserID.String(), map[string]string{
		"username": user.Username,
		"category": user.Category,
	})

	return token, nil
}

// Login authenticates a user by email and returns a session token.
func (svc *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	email = models.NormalizeEmail(email)

	user, err := svc.reader.GetByUsernameOrEmail(ctx, nil, &email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, err
	}
	if user == nil {
		logger.Log.Errorw("user does not exist")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Errorw("invalid credentials", "user_id", user.UserID)
		return nil, ErrInvalidCredentials
	}

	token, err := svc.jwt.Generate(ctx, user.UserID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return nil, err
	}

	return &models.LoginResult{
		Token:     token,
		FirstName: user.FirstName,
		Username:  user.Username,
	}, nil
}
