package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-home-inventory/internal/models"
	"github.com/sbilibin2017/gw-home-inventory/internal/services"
)

//go:generate mockgen -source=register.go -destination=mock_register.go -package=handlers

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, reg models.Registration) (string, error)
}

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Username, 5-10 characters of letters, digits, "." and "_"
	// required: true
	// default: alice01
	Username string `json:"username" validate:"required,username"`

	// First name
	// required: true
	// default: Alice
	FirstName string `json:"firstName" validate:"required,max=50"`

	// Last name
	// required: true
	// default: Smith
	LastName string `json:"lastName" validate:"required,max=50"`

	// Email
	// required: true
	// default: alice@example.com
	Email string `json:"email" validate:"required,email"`

	// Phone number, exactly 9 digits
	// required: true
	// default: 123456789
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`

	// Address
	// required: true
	// default: 1 Main St
	Address string `json:"address" validate:"required,max=200"`

	// Category
	// required: true
	// enum: Home,Shop
	Category string `json:"category" validate:"required,oneof=Home Shop"`

	// Password, 6-20 characters of letters, digits and !@#$%^&*
	// required: true
	// default: secret1
	Password string `json:"password" validate:"required,password"`
}

// RegisterResponse represents a successful registration response
// swagger:model RegisterResponse
type RegisterResponse struct {
	// Success message
	// default: User registered successfully
	Message string `json:"message"`

	// Session token
	Token string `json:"token"`
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account. Username and email must be unique. Password is hashed before storing.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body handlers.RegisterRequest true "User registration request"
// @Success 201 {object} handlers.RegisterResponse "User successfully registered"
// @Failure 400 {object} handlers.ErrorResponse "Username or email already exists / invalid request"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /api/auth/register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}

		token, err := svc.Register(r.Context(), models.Registration{
			Username:    req.Username,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Address:     req.Address,
			Category:    req.Category,
			Password:    req.Password,
		})
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserAlreadyExists):
				writeError(w, http.StatusBadRequest, "Username or email already exists")
			default:
				writeInternalError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			Message: "User registered successfully",
			Token:   token,
		})
	}
}
