package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/repositories"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

func newRegistration(username, email string) models.Registration {
	return models.Registration{
		Username:    username,
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       email,
		PhoneNumber: "123456789",
		Address:     "1 Main St",
		Category:    models.CategoryHome,
		Password:    "secret1",
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name         string
		email        string
		existingUser *models.UserDB
		readerErr    error
		writerErr    error
		jwtErr       error
		wantErr      error
	}{
		{
			name:  "successful registration",
			email: "Alice@X.com",
		},
		{
			name:         "user already exists",
			email:        "alice@x.com",
			existingUser: &models.UserDB{UserID: uuid.New()},
			wantErr:      services.ErrUserAlreadyExists,
		},
		{
			name:      "reader error",
			email:     "alice@x.com",
			readerErr: errors.New("db error"),
			wantErr:   errors.New("db error"),
		},
		{
			name:      "unique index race",
			email:     "alice@x.com",
			writerErr: repositories.ErrDuplicate,
			wantErr:   services.ErrUserAlreadyExists,
		},
		{
			name:      "writer error",
			email:     "alice@x.com",
			writerErr: errors.New("save error"),
			wantErr:   errors.New("save error"),
		},
		{
			name:    "JWT generation error",
			email:   "alice@x.com",
			jwtErr:  errors.New("jwt error"),
			wantErr: errors.New("jwt error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)
			mockJWT := services.NewMockJWTGenerator(ctrl)
			mockEvents := services.NewMockEventPublisher(ctrl)

			svc := services.NewAuthService(mockReader, mockWriter, mockJWT, mockEvents)

			username := "alice01"
			normalized := "alice@x.com"
			mockReader.EXPECT().
				GetByUsernameOrEmail(gomock.Any(), &username, &normalized).
				Return(tt.existingUser, tt.readerErr)

			var saved *models.UserDB
			if tt.existingUser == nil && tt.readerErr == nil {
				mockWriter.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *models.UserDB) error {
						saved = u
						return tt.writerErr
					})
			}
			if tt.existingUser == nil && tt.readerErr == nil && tt.writerErr == nil {
				mockJWT.EXPECT().
					Generate(gomock.Any(), gomock.Any(), normalized).
					Return("token123", tt.jwtErr)
			}
			if tt.wantErr == nil {
				mockEvents.EXPECT().
					Publish(gomock.Any(), models.EventUserRegistered, gomock.Any(), gomock.Any(), gomock.Any())
			}

			token, err := svc.Register(context.Background(), newRegistration(username, tt.email))
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "token123", token)
			require.NotNil(t, saved)
			assert.Equal(t, normalized, saved.Email)
			assert.NotEqual(t, uuid.Nil, saved.UserID)
			assert.NotEqual(t, "secret1", saved.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.PasswordHash), []byte("secret1")))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)
	mockJWT := services.NewMockJWTGenerator(ctrl)

	svc := services.NewAuthService(mockReader, mockWriter, mockJWT, nil)

	password := "secret1"
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	userID := uuid.New()
	email := "alice@x.com"
	user := &models.UserDB{
		UserID:       userID,
		Username:     "alice01",
		FirstName:    "Alice",
		Email:        email,
		PasswordHash: string(hashed),
	}

	tests := []struct {
		name      string
		user      *models.UserDB
		readerErr error
		jwtErr    error
		loginPass string
		wantErr   error
	}{
		{
			name:      "successful login",
			user:      user,
			loginPass: password,
		},
		{
			name:      "user does not exist",
			loginPass: password,
			wantErr:   services.ErrInvalidCredentials,
		},
		{
			name:      "wrong password",
			user:      user,
			loginPass: "wrongpass",
			wantErr:   services.ErrInvalidCredentials,
		},
		{
			name:      "reader error",
			readerErr: errors.New("db error"),
			loginPass: password,
			wantErr:   errors.New("db error"),
		},
		{
			name:      "JWT generation error",
			user:      user,
			jwtErr:    errors.New("jwt error"),
			loginPass: password,
			wantErr:   errors.New("jwt error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockReader.EXPECT().
				GetByUsernameOrEmail(gomock.Any(), (*string)(nil), &email).
				Return(tt.user, tt.readerErr)

			if tt.user != nil && tt.loginPass == password {
				mockJWT.EXPECT().
					Generate(gomock.Any(), userID, email).
					Return("token123", tt.jwtErr)
			}

			res, err := svc.Login(context.Background(), " ALICE@x.com ", tt.loginPass)
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Nil(t, res)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, &models.LoginResult{Token: "token123", FirstName: "Alice", Username: "alice01"}, res)
		})
	}
}
