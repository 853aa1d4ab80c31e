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

// ProfileService handles profile reads, updates and account deletion for the authenticated user.
type ProfileService struct {
	reader UserReader
	writer UserWriter
	events EventPublisher
	now    func() time.Time
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(reader UserReader, writer UserWriter, events EventPublisher) *ProfileService {
	if events == nil {
		events = NewKafkaEventPublisher(nil)
	}
	return &ProfileService{
		reader: reader,
		writer: writer,
		events: events,
		now:    time.Now,
	}
}

// GetProfile returns the user record.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	user, err := s.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", userID, "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile applies a partial update and returns the updated record.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.UserDB, error) {
	change := models.UserUpdate{
		FirstName:   upd.FirstName,
		LastName:    upd.LastName,
		PhoneNumber: upd.PhoneNumber,
		Address:     upd.Address,
		Category:    upd.Category,
	}

	if upd.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Log.Errorw("failed to hash password", "err", err)
			return nil, err
		}
		hash := string(hashedPassword)
		changedAt := s.now().UTC()
		change.PasswordHash = &hash
		change.PasswordChangedAt = &changedAt
	}

	if !change.IsEmpty() {
		if err := s.writer.Update(ctx, userID, change); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrUserNotFound
			}
			logger.Log.Errorw("failed to update profile", "user_id", userID, "err", err)
			return nil, err
		}
	}

	return s.GetProfile(ctx, userID)
}

// DeleteAccount permanently removes the account after re-checking the current password.
func (s *ProfileService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Errorw("invalid password on account deletion", "user_id", userID)
		return ErrInvalidCredentials
	}

	if err := s.writer.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		logger.Log.Errorw("failed to delete user", "user_id", userID, "err", err)
		return err
	}

	s.events.Publish(ctx, models.EventUserDeleted, userID, userID.String(), nil)

	return nil
}
