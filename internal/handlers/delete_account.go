package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=delete_account.go -destination=mock_delete_account.go -package=handlers

// AccountDeleter defines the interface that the service must implement.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error
}

// DeleteAccountRequest confirms account deletion with the current password
// swagger:model DeleteAccountRequest
type DeleteAccountRequest struct {
	// Current password
	// required: true
	Password string `json:"password" validate:"required"`
}

// NewDeleteAccountHandler returns an HTTP handler that permanently deletes the caller's account.
// @Summary Delete account
// @Description Permanently removes the authenticated user's account after re-checking the current password
// @Tags profile
// @Accept json
// @Produce json
// @Param deleteAccountRequest body handlers.DeleteAccountRequest true "Current password"
// @Success 200 {object} handlers.MessageResponse "Account deleted"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 401 {object} handlers.ErrorResponse "Incorrect password / invalid token"
// @Failure 403 {object} handlers.ErrorResponse "Missing token"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/delete-account [delete]
// @Security BearerAuth
func NewDeleteAccountHandler(svc AccountDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := sessionUserID(w, r)
		if !ok {
			return
		}

		var req DeleteAccountRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		if err := svc.DeleteAccount(r.Context(), userID, req.Password); err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				writeError(w, http.StatusUnauthorized, "Incorrect password")
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			default:
				writeInternalError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
	}
}
