package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=reset_password.go -destination=mock_reset_password.go -package=handlers

// PasswordResetter defines the interface that the service must implement.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

// ResetPasswordRequest represents the JSON body for setting a new password
// swagger:model ResetPasswordRequest
type ResetPasswordRequest struct {
	// Token returned by verify-otp
	// required: true
	ResetToken string `json:"resetToken" validate:"required"`

	// New password, 6-20 characters of letters, digits and !@#$%^&*
	// required: true
	// default: secret2
	NewPassword string `json:"newPassword" validate:"required,password"`
}

// NewResetPasswordHandler returns an HTTP handler that sets a new password using a reset token.
// @Summary Reset password
// @Description Replaces the password of the account named by the reset token. Session tokens are rejected
// @Tags auth
// @Accept json
// @Produce json
// @Param resetPasswordRequest body handlers.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} handlers.MessageResponse "Password changed"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request"
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/reset-password [post]
func NewResetPasswordHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		if err := svc.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidToken):
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			default:
				writeInternalError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Password reset successfully"})
	}
}
