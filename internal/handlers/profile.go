package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=profile.go -destination=mock_profile.go -package=handlers

// ProfileManager defines the interface that the service must implement.
type ProfileManager interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.UserDB, error)
}

// ProfileResponse is the public view of a user
// swagger:model ProfileResponse
type ProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newProfileResponse(u *models.UserDB) ProfileResponse {
	return ProfileResponse{
		ID:          u.UserID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		Category:    u.Category,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UpdateProfileRequest is a partial profile change. Email cannot be changed.
// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName" validate:"omitnil,min=1,max=50"`
	LastName    *string `json:"lastName" validate:"omitnil,min=1,max=50"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitnil,phone"`
	Address     *string `json:"address" validate:"omitnil,min=1,max=200"`
	Category    *string `json:"category" validate:"omitnil,oneof=Home Shop"`
	Password    *string `json:"password" validate:"omitnil,password"`
}

// UpdateProfileResponse carries the updated profile
// swagger:model UpdateProfileResponse
type UpdateProfileResponse struct {
	// default: Profile updated successfully
	Message string          `json:"message"`
	User    ProfileResponse `json:"user"`
}

// NewGetProfileHandler returns an HTTP handler for reading the caller's profile.
// @Summary Get profile
// @Description Returns the profile of the authenticated user
// @Tags profile
// @Produce json
// @Success 200 {object} handlers.ProfileResponse "Profile"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/profile [get]
// @Security BearerAuth
func NewGetProfileHandler(svc ProfileManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := sessionUserID(w, r)
		if !ok {
			return
		}

		user, err := svc.GetProfile(r.Context(), userID)
		if err != nil {
			writeProfileError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newProfileResponse(user))
	}
}

// NewUpdateProfileHandler returns an HTTP handler for partially updating the caller's profile.
// @Summary Update profile
// @Description Updates any of first/last name, phone, address, category and password. Omitted fields stay unchanged
// @Tags profile
// @Accept json
// @Produce json
// @Param updateProfileRequest body handlers.UpdateProfileRequest true "Profile changes"
// @Success 200 {object} handlers.UpdateProfileResponse "Updated profile"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/profile [put]
// @Security BearerAuth
func NewUpdateProfileHandler(svc ProfileManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := sessionUserID(w, r)
		if !ok {
			return
		}

		var req UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		user, err := svc.UpdateProfile(r.Context(), userID, models.ProfileUpdate{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			Address:     req.Address,
			Category:    req.Category,
			Password:    req.Password,
		})
		if err != nil {
			writeProfileError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UpdateProfileResponse{
			Message: "Profile updated successfully",
			User:    newProfileResponse(user),
		})
	}
}

func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		writeInternalError(w, err)
	}
}
