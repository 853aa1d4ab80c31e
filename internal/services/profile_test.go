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

func TestProfileService_GetProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	svc := services.NewProfileService(mockReader, services.NewMockUserWriter(ctrl), nil)

	user := completeUser()

	mockReader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)
	got, err := svc.GetProfile(context.Background(), user.UserID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	missing := uuid.New()
	mockReader.EXPECT().GetByID(gomock.Any(), missing).Return(nil, nil)
	_, err = svc.GetProfile(context.Background(), missing)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	mockReader.EXPECT().GetByID(gomock.Any(), missing).Return(nil, errors.New("db error"))
	_, err = svc.GetProfile(context.Background(), missing)
	assert.EqualError(t, err, "db error")
}

func TestProfileService_UpdateProfile(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	t.Run("partial update leaves other fields untouched", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		svc := services.NewProfileService(mockReader, mockWriter, nil)

		user := completeUser()
		mockWriter.EXPECT().
			Update(gomock.Any(), user.UserID, models.UserUpdate{Address: strPtr("2 Side St"), Category: strPtr(models.CategoryShop)}).
			Return(nil)
		mockReader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)

		_, err := svc.UpdateProfile(context.Background(), user.UserID, models.ProfileUpdate{
			Address:  strPtr("2 Side St"),
			Category: strPtr(models.CategoryShop),
		})
		assert.NoError(t, err)
	})

	t.Run("new password is hashed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockReader := services.NewMockUserReader(ctrl)
		mockWriter := services.NewMockUserWriter(ctrl)
		svc := services.NewProfileService(mockReader, mockWriter, nil)

		user := completeUser()
		mockWriter.EXPECT().
			Update(gomock.Any(), user.UserID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, upd models.UserUpdate) error {
				require.NotNil(t, upd.PasswordHash)
				require.NotNil(t, upd.PasswordChangedAt)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*upd.PasswordHash), []byte("secret9")))
				return nil
			})
		mockReader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)

		_, err := svc.UpdateProfile(context.Background(), user.UserID, models.ProfileUpdate{Password: strPtr("secret9")})
		assert.NoError(t, err)
	})

	t.Run("empty update only reads", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockReader := services.NewMockUserReader(ctrl)
		svc := services.NewProfileService(mockReader, services.NewMockUserWriter(ctrl), nil)

		user := completeUser()
		mockReader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)

		got, err := svc.UpdateProfile(context.Background(), user.UserID, models.ProfileUpdate{})
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("account gone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockWriter := services.NewMockUserWriter(ctrl)
		svc := services.NewProfileService(services.NewMockUserReader(ctrl), mockWriter, nil)

		mockWriter.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(repositories.ErrNotFound)

		_, err := svc.UpdateProfile(context.Background(), uuid.New(), models.ProfileUpdate{FirstName: strPtr("Bob")})
		assert.ErrorIs(t, err, services.ErrUserNotFound)
	})
}

func TestProfileService_DeleteAccount(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)

	tests := []struct {
		name      string
		found     bool
		password  string
		deleteErr error
		wantErr   error
	}{
		{name: "deleted", found: true, password: "secret1"},
		{name: "wrong password", found: true, password: "nope", wantErr: services.ErrInvalidCredentials},
		{name: "unknown user", password: "secret1", wantErr: services.ErrUserNotFound},
		{name: "deleted concurrently", found: true, password: "secret1", deleteErr: repositories.ErrNotFound, wantErr: services.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockReader := services.NewMockUserReader(ctrl)
			mockWriter := services.NewMockUserWriter(ctrl)
			mockEvents := services.NewMockEventPublisher(ctrl)
			svc := services.NewProfileService(mockReader, mockWriter, mockEvents)

			user := completeUser()
			user.PasswordHash = string(hashed)

			if tt.found {
				mockReader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(user, nil)
			} else {
				mockReader.EXPECT().GetByID(gomock.Any(), user.UserID).Return(nil, nil)
			}
			if tt.found && tt.password == "secret1" {
				mockWriter.EXPECT().Delete(gomock.Any(), user.UserID).Return(tt.deleteErr)
			}
			if tt.wantErr == nil {
				mockEvents.EXPECT().Publish(gomock.Any(), models.EventUserDeleted, user.UserID, user.UserID.String(), gomock.Nil())
			}

			err := svc.DeleteAccount(context.Background(), user.UserID, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
