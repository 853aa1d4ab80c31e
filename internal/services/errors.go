package services

import "errors"

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("username or email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrOTPInvalid         = errors.New("invalid OTP")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrProfileIncomplete  = errors.New("user profile is incomplete")
	ErrTooManyAttempts    = errors.New("too many attempts, try again later")
	ErrItemNotFound       = errors.New("item not found")
	ErrInvalidAttributes  = errors.New("attributes must be a JSON object")
)
