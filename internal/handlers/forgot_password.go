package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=forgot_password.go -destination=mock_forgot_password.go -package=handlers

// ForgotPassworder defines the interface that the service must implement.
type ForgotPassworder interface {
	ForgotPassword(ctx context.Context, email string) error
}

// ForgotPasswordRequest represents the JSON body for requesting a reset code
// swagger:model ForgotPasswordRequest
type ForgotPasswordRequest struct {
	// Email of the account
	// required: true
	// default: alice@example.com
	Email string `json:"email" validate:"required,email"`
}

// NewForgotPasswordHandler returns an HTTP handler that emails a one-time reset code.
// @Summary Request a password reset code
// @Description Generates a 6-digit code valid for 10 minutes and emails it to the account owner
// @Tags auth
// @Accept json
// @Produce json
// @Param forgotPasswordRequest body handlers.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} handlers.MessageResponse "Code sent"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request / incomplete profile"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 429 {object} handlers.ErrorResponse "Too many attempts"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/forgot-password [post]
func NewForgotPasswordHandler(svc ForgotPassworder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		if err := svc.ForgotPassword(r.Context(), req.Email); err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, services.ErrProfileIncomplete):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, services.ErrTooManyAttempts):
				writeError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
			default:
				writeInternalError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent to your email"})
	}
}
