package services_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/gw-home-inventory/internal/jwt"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

type passwordMocks struct {
	reader  *services.MockUserReader
	writer  *services.MockUserWriter
	mailer  *services.MockMailer
	tokens  *services.MockResetTokenManager
	limiter *services.MockAttemptLimiter
	events  *services.MockEventPublisher
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newPasswordService(t *testing.T, opts ...services.PasswordOption) (*services.PasswordService, passwordMocks) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := passwordMocks{
		reader:  services.NewMockUserReader(ctrl),
		writer:  services.NewMockUserWriter(ctrl),
		mailer:  services.NewMockMailer(ctrl),
		tokens:  services.NewMockResetTokenManager(ctrl),
		limiter: services.NewMockAttemptLimiter(ctrl),
		events:  services.NewMockEventPublisher(ctrl),
	}

	opts = append([]services.PasswordOption{
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithCodeGenerator(func() (string, error) { return "123456", nil }),
	}, opts...)

	svc := services.NewPasswordService(m.reader, m.writer, m.mailer, m.tokens, m.limiter, m.events, opts...)
	return svc, m
}

func completeUser() *models.UserDB {
	return &models.UserDB{
		UserID:    uuid.New(),
		Username:  "alice01",
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@x.com",
		Category:  models.CategoryHome,
	}
}

func TestPasswordService_ForgotPassword(t *testing.T) {
	email := "alice@x.com"

	t.Run("stores and emails a code", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := completeUser()

		m.limiter.EXPECT().Increment(gomock.Any(), "forgot_password", email).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), (*string)(nil), &email).Return(user, nil)
		m.writer.EXPECT().SetOTP(gomock.Any(), user.UserID, "123456", fixedNow.Add(10*time.Minute)).Return(nil)
		m.mailer.EXPECT().SendOTP(gomock.Any(), email, "Alice", "123456").Return(nil)

		assert.NoError(t, svc.ForgotPassword(context.Background(), " Alice@X.com"))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, m := newPasswordService(t)

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		assert.ErrorIs(t, svc.ForgotPassword(context.Background(), email), services.ErrUserNotFound)
	})

	t.Run("unknown email concealed", func(t *testing.T) {
		svc, m := newPasswordService(t, services.WithConcealUnknownEmail(true))

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		assert.NoError(t, svc.ForgotPassword(context.Background(), email))
	})

	t.Run("incomplete profile", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := completeUser()
		user.FirstName = ""
		user.Category = ""

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)

		err := svc.ForgotPassword(context.Background(), email)
		assert.ErrorIs(t, err, services.ErrProfileIncomplete)
		assert.Contains(t, err.Error(), "firstName, category")
	})

	t.Run("too many attempts", func(t *testing.T) {
		svc, m := newPasswordService(t, services.WithMaxAttempts(3))

		m.limiter.EXPECT().Increment(gomock.Any(), "forgot_password", email).Return(int64(4), nil)

		assert.ErrorIs(t, svc.ForgotPassword(context.Background(), email), services.ErrTooManyAttempts)
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := completeUser()

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("redis down"))
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)
		m.writer.EXPECT().SetOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.mailer.EXPECT().SendOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, svc.ForgotPassword(context.Background(), email))
	})

	t.Run("mail failure", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := completeUser()

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)
		m.writer.EXPECT().SetOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.mailer.EXPECT().SendOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		err := svc.ForgotPassword(context.Background(), email)
		assert.EqualError(t, err, "send OTP email: smtp down")
	})
}

func TestPasswordService_VerifyOTP(t *testing.T) {
	email := "alice@x.com"

	withOTP := func(code string, expiresAt time.Time) *models.UserDB {
		u := completeUser()
		u.OTP = code
		u.OTPExpiration = &expiresAt
		return u
	}

	t.Run("valid code issues a reset token", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := withOTP("123456", fixedNow.Add(5*time.Minute))

		m.limiter.EXPECT().Increment(gomock.Any(), "verify_otp", email).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), (*string)(nil), &email).Return(user, nil)

		var boundID string
		m.writer.EXPECT().
			ConsumeOTP(gomock.Any(), user.UserID, "123456", fixedNow, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, _ time.Time, tokenID string) error {
				boundID = tokenID
				return nil
			})
		m.limiter.EXPECT().Reset(gomock.Any(), "forgot_password", email).Return(nil)
		m.limiter.EXPECT().Reset(gomock.Any(), "verify_otp", email).Return(nil)
		m.tokens.EXPECT().
			GenerateWithID(gomock.Any(), user.UserID, email, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ string, tokenID string) (string, error) {
				assert.Equal(t, boundID, tokenID, "token id must match the one stored with the user")
				return "reset-token", nil
			})

		token, err := svc.VerifyOTP(context.Background(), email, "123456")
		require.NoError(t, err)
		assert.Equal(t, "reset-token", token)
		assert.NotEmpty(t, boundID)
	})

	t.Run("code consumed by a concurrent verification", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := withOTP("123456", fixedNow.Add(5*time.Minute))

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)
		m.writer.EXPECT().
			ConsumeOTP(gomock.Any(), user.UserID, "123456", fixedNow, gomock.Any()).
			Return(repositories.ErrNotFound)

		_, err := svc.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, services.ErrOTPInvalid)
	})

	t.Run("consume fails", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := withOTP("123456", fixedNow.Add(5*time.Minute))
		dbErr := errors.New("mongo down")

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)
		m.writer.EXPECT().ConsumeOTP(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(dbErr)

		_, err := svc.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := withOTP("123456", fixedNow.Add(5*time.Minute))

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)

		_, err := svc.VerifyOTP(context.Background(), email, "654321")
		assert.ErrorIs(t, err, services.ErrOTPInvalid)
	})

	t.Run("matching code past expiry is expired and cleared", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := withOTP("123456", fixedNow.Add(-time.Second))

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(user, nil)
		m.writer.EXPECT().ClearOTP(gomock.Any(), user.UserID).Return(nil)

		_, err := svc.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, services.ErrOTPExpired)
	})

	t.Run("no code issued", func(t *testing.T) {
		svc, m := newPasswordService(t)

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(completeUser(), nil)

		_, err := svc.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, services.ErrOTPInvalid)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, m := newPasswordService(t)

		m.limiter.EXPECT().Increment(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.reader.EXPECT().GetByUsernameOrEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := svc.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, services.ErrUserNotFound)
	})

	t.Run("too many attempts", func(t *testing.T) {
		svc, m := newPasswordService(t)

		m.limiter.EXPECT().Increment(gomock.Any(), "verify_otp", email).Return(int64(6), nil)

		_, err := svc.VerifyOTP(context.Background(), email, "123456")
		assert.ErrorIs(t, err, services.ErrTooManyAttempts)
	})
}

func TestPasswordService_ResetPassword(t *testing.T) {
	const tokenID = "reset-jti-1"

	claimsFor := func(userID uuid.UUID, id string) *jwt.Claims {
		return &jwt.Claims{
			UserID:  userID,
			Purpose: jwt.PurposePasswordReset,
			RegisteredClaims: gojwt.RegisteredClaims{
				ID:       id,
				IssuedAt: gojwt.NewNumericDate(fixedNow),
			},
		}
	}
	pendingReset := func() *models.UserDB {
		u := completeUser()
		u.ResetTokenID = tokenID
		return u
	}

	t.Run("replaces the password", func(t *testing.T) {
		svc, m := newPasswordService(t)
		user := pendingReset()

		m.tokens.EXPECT().GetClaims(gomock.Any(), "reset-token").Return(claimsFor(user.UserID, tokenID), nil)
		m.reader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)
		m.writer.EXPECT().
			UpdatePassword(gomock.Any(), user.UserID, tokenID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _, hash string) error {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret2")))
				return nil
			})
		m.events.EXPECT().Publish(gomock.Any(), models.EventUserPasswordReset, user.UserID, user.UserID.String(), gomock.Nil())

		assert.NoError(t, svc.ResetPassword(context.Background(), "reset-token", "secret2"))
	})

	t.Run("rejected token", func(t *testing.T) {
		svc, m := newPasswordService(t)

		m.tokens.EXPECT().GetClaims(gomock.Any(), "session-token").Return(nil, jwt.ErrTokenPurpose)

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "session-token", "secret2"), services.ErrInvalidToken)
	})

	t.Run("token without id", func(t *testing.T) {
		svc, m := newPasswordService(t)

		m.tokens.EXPECT().GetClaims(gomock.Any(), gomock.Any()).Return(claimsFor(uuid.New(), ""), nil)

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "reset-token", "secret2"), services.ErrInvalidToken)
	})

	tests := []struct {
		name     string
		storedID string
		updErr   error
		wantErr  error
	}{
		{name: "token already redeemed", storedID: "", wantErr: services.ErrInvalidToken},
		{name: "superseded by a newer token", storedID: "reset-jti-2", wantErr: services.ErrInvalidToken},
		{name: "redeemed concurrently", storedID: tokenID, updErr: repositories.ErrNotFound, wantErr: services.ErrInvalidToken},
		{name: "storage failure", storedID: tokenID, updErr: errors.New("mongo down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newPasswordService(t)
			user := completeUser()
			user.ResetTokenID = tt.storedID

			m.tokens.EXPECT().GetClaims(gomock.Any(), gomock.Any()).Return(claimsFor(user.UserID, tokenID), nil)
			m.reader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)
			if tt.storedID == tokenID {
				m.writer.EXPECT().UpdatePassword(gomock.Any(), user.UserID, tokenID, gomock.Any()).Return(tt.updErr)
			}

			err := svc.ResetPassword(context.Background(), "reset-token", "secret2")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.ErrorIs(t, err, tt.updErr)
		})
	}

	t.Run("account gone", func(t *testing.T) {
		svc, m := newPasswordService(t)
		userID := uuid.New()

		m.tokens.EXPECT().GetClaims(gomock.Any(), gomock.Any()).Return(claimsFor(userID, tokenID), nil)
		m.reader.EXPECT().GetByID(gomock.Any(), userID).Return(nil, nil)

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "reset-token", "secret2"), services.ErrUserNotFound)
	})
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := services.GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
