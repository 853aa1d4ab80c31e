package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=verify_otp.go -destination=mock_verify_otp.go -package=handlers

// OTPVerifier defines the interface that the service must implement.
type OTPVerifier interface {
	VerifyOTP(ctx context.Context, email, code string) (string, error)
}

// VerifyOTPRequest represents the JSON body for checking a reset code
// swagger:model VerifyOTPRequest
type VerifyOTPRequest struct {
	// Email of the account
	// required: true
	// default: alice@example.com
	Email string `json:"email" validate:"required,email"`

	// Code received by email
	// required: true
	// default: 123456
	Code string `json:"code" validate:"required,otp"`
}

// VerifyOTPResponse carries the password reset token
// swagger:model VerifyOTPResponse
type VerifyOTPResponse struct {
	// Success message
	// default: OTP verified successfully
	Message string `json:"message"`

	// Token accepted only by reset-password
	ResetToken string `json:"resetToken"`
}

// NewVerifyOTPHandler returns an HTTP handler that exchanges a valid code for a reset token.
// @Summary Verify a password reset code
// @Description Checks the emailed code. A valid code is consumed and exchanged for a one-hour reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param verifyOTPRequest body handlers.VerifyOTPRequest true "Verify OTP request"
// @Success 200 {object} handlers.VerifyOTPResponse "Code accepted"
// @Failure 400 {object} handlers.ErrorResponse "Invalid or expired code"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 429 {object} handlers.ErrorResponse "Too many attempts"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/verify-otp [post]
func NewVerifyOTPHandler(svc OTPVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyOTPRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		token, err := svc.VerifyOTP(r.Context(), req.Email, req.Code)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			case errors.Is(err, services.ErrOTPExpired):
				writeError(w, http.StatusBadRequest, "OTP has expired")
			case errors.Is(err, services.ErrOTPInvalid):
				writeError(w, http.StatusBadRequest, "Invalid OTP")
			case errors.Is(err, services.ErrTooManyAttempts):
				writeError(w, http.StatusTooManyRequests, "Too many attempts, try again later")
			default:
				writeInternalError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, VerifyOTPResponse{
			Message:    "OTP verified successfully",
			ResetToken: token,
		})
	}
}
