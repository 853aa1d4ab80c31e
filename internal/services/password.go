package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/gw-home-inventory/internal/jwt"
	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
)

//go:generate mockgen -source=password.go -destination=mock_password.go -package=services

// Attempt scopes counted by the limiter.
const (
	scopeForgotPassword = "forgot_password"
	scopeVerifyOTP      = "verify_otp"
)

// Mailer delivers one-time codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, firstName, code string) error
}

// AttemptLimiter counts attempts per identifier inside a window.
type AttemptLimiter interface {
	Increment(ctx context.Context, scope, identifier string) (int64, error)
	Reset(ctx context.Context, scope, identifier string) error
}

// ResetTokenManager issues and verifies password reset tokens.
type ResetTokenManager interface {
	GenerateWithID(ctx context.Context, userID uuid.UUID, email, tokenID string) (string, error)
	GetClaims(ctx context.Context, token string) (*jwt.Claims, error)
}

// PasswordService implements the forgot-password, OTP verification and reset flow.
type PasswordService struct {
	reader         UserReader
	writer         UserWriter
	mailer         Mailer
	tokens         ResetTokenManager
	limiter        AttemptLimiter
	events         EventPublisher
	otpTTL         time.Duration
	maxAttempts    int64
	concealUnknown bool
	now            func() time.Time
	newCode        func() (string, error)
}

// PasswordOption configures a PasswordService.
type PasswordOption func(*PasswordService)

// WithOTPTTL sets how long an issued code stays valid.
func WithOTPTTL(ttl time.Duration) PasswordOption {
	return func(s *PasswordService) {
		s.otpTTL = ttl
	}
}

// WithMaxAttempts sets how many forgot/verify attempts per email a window allows. Zero disables the limit.
func WithMaxAttempts(n int64) PasswordOption {
	return func(s *PasswordService) {
		s.maxAttempts = n
	}
}

// WithConcealUnknownEmail makes forgot-password succeed silently for unknown emails.
func WithConcealUnknownEmail(conceal bool) PasswordOption {
	return func(s *PasswordService) {
		s.concealUnknown = conceal
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) PasswordOption {
	return func(s *PasswordService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator overrides how one-time codes are produced.
func WithCodeGenerator(gen func() (string, error)) PasswordOption {
	return func(s *PasswordService) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

// NewPasswordService creates a new PasswordService. limiter may be nil.
func NewPasswordService(
	reader UserReader,
	writer UserWriter,
	mailer Mailer,
	tokens ResetTokenManager,
	limiter AttemptLimiter,
	events EventPublisher,
	opts ...PasswordOption,
) *PasswordService {
	if events == nil {
		events = NewKafkaEventPublisher(nil)
	}
	s := &PasswordService{
		reader:      reader,
		writer:      writer,
		mailer:      mailer,
		tokens:      tokens,
		limiter:     limiter,
		events:      events,
		otpTTL:      10 * time.Minute,
		maxAttempts: 5,
		now:         time.Now,
		newCode:     GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateOTP returns a uniformly distributed 6-digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ForgotPassword issues a new one-time code for the account and emails it.
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)

	if err := s.checkAttempts(ctx, scopeForgotPassword, email); err != nil {
		return err
	}

	user, err := s.reader.GetByUsernameOrEmail(ctx, nil, &email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return err
	}
	if user == nil {
		if s.concealUnknown {
			logger.Log.Infow("forgot password for unknown email, concealed")
			return nil
		}
		return ErrUserNotFound
	}

	if missing := user.MissingResetFields(); len(missing) > 0 {
		logger.Log.Errorw("profile incomplete for password reset", "user_id", user.UserID, "missing", missing)
		return fmt.Errorf("%w: missing %s", ErrProfileIncomplete, strings.Join(missing, ", "))
	}

	code, err := s.newCode()
	if err != nil {
		logger.Log.Errorw("failed to generate OTP", "err", err)
		return err
	}

	if err := s.writer.SetOTP(ctx, user.UserID, code, s.now().Add(s.otpTTL)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		logger.Log.Errorw("failed to store OTP", "user_id", user.UserID, "err", err)
		return err
	}

	if err := s.mailer.SendOTP(ctx, user.Email, user.FirstName, code); err != nil {
		logger.Log.Errorw("failed to send OTP email", "user_id", user.UserID, "err", err)
		return fmt.Errorf("send OTP email: %w", err)
	}

	return nil
}

// VerifyOTP checks a submitted code and, on success, returns a password reset token.
func (s *PasswordService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = models.NormalizeEmail(email)

	if err := s.checkAttempts(ctx, scopeVerifyOTP, email); err != nil {
		return "", err
	}

	user, err := s.reader.GetByUsernameOrEmail(ctx, nil, &email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	now := s.now()
	if user.OTPExpired(now) {
		if err := s.writer.ClearOTP(ctx, user.UserID); err != nil {
			logger.Log.Errorw("failed to clear expired OTP", "user_id", user.UserID, "err", err)
		}
		return "", ErrOTPExpired
	}

	stored, ok := user.ActiveOTP(now)
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		logger.Log.Errorw("OTP mismatch", "user_id", user.UserID)
		return "", ErrOTPInvalid
	}

	// The conditional consume lets exactly one of several concurrent verifications win.
	tokenID := uuid.NewString()
	if err := s.writer.ConsumeOTP(ctx, user.UserID, code, now, tokenID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Errorw("OTP already consumed", "user_id", user.UserID)
			return "", ErrOTPInvalid
		}
		logger.Log.Errorw("failed to consume OTP", "user_id", user.UserID, "err", err)
		return "", err
	}
	s.resetAttempts(ctx, email)

	token, err := s.tokens.GenerateWithID(ctx, user.UserID, user.Email, tokenID)
	if err != nil {
		logger.Log.Errorw("failed to generate reset token", "err", err)
		return "", err
	}

	return token, nil
}

// ResetPassword replaces the password of the account named by a reset token.
// Each reset token changes the password at most once.
func (s *PasswordService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.GetClaims(ctx, resetToken)
	if err != nil {
		logger.Log.Errorw("reset token rejected", "err", err)
		return ErrInvalidToken
	}
	if claims.ID == "" {
		logger.Log.Errorw("reset token without id", "user_id", claims.UserID)
		return ErrInvalidToken
	}

	user, err := s.reader.GetByID(ctx, claims.UserID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.ResetTokenID != claims.ID {
		logger.Log.Errorw("reset token already used", "user_id", user.UserID)
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return err
	}

	if err := s.writer.UpdatePassword(ctx, user.UserID, claims.ID, string(hashedPassword)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Log.Errorw("reset token redeemed concurrently", "user_id", user.UserID)
			return ErrInvalidToken
		}
		logger.Log.Errorw("failed to update password", "user_id", user.UserID, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventUserPasswordReset, user.UserID, user.UserID.String(), nil)

	return nil
}

// checkAttempts enforces the per-email attempt limit. Limiter failures let the request through.
func (s *PasswordService) checkAttempts(ctx context.Context, scope, email string) error {
	if s.limiter == nil || s.maxAttempts <= 0 {
		return nil
	}

	n, err := s.limiter.Increment(ctx, scope, email)
	if err != nil {
		logger.Log.Warnw("attempt limiter unavailable", "scope", scope, "err", err)
		return nil
	}
	if n > s.maxAttempts {
		logger.Log.Warnw("attempt limit exceeded", "scope", scope, "attempts", n)
		return ErrTooManyAttempts
	}
	return nil
}

func (s *PasswordService) resetAttempts(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	for _, scope := range []string{scopeForgotPassword, scopeVerifyOTP} {
		if err := s.limiter.Reset(ctx, scope, email); err != nil {
			logger.Log.Warnw("failed to reset attempts", "scope", scope, "err", err)
		}
	}
}
