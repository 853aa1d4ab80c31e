package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Supported user categories
const (
	CategoryHome = "Home"
	CategoryShop = "Shop"
)

// UserDB represents a user document in the store
type UserDB struct {
	UserID            uuid.UUID  `json:"id"`          // Primary key
	Username          string     `json:"username"`    // Unique, case-sensitive
	FirstName         string     `json:"firstName"`   // Given name
	LastName          string     `json:"lastName"`    // Family name
	Email             string     `json:"email"`       // Unique, stored lowercased
	PhoneNumber       string     `json:"phoneNumber"` // Nine digits
	Address           string     `json:"address"`     // Free text
	Category          string     `json:"category"`    // Home or Shop
	PasswordHash      string     `json:"-"`           // bcrypt hash
	OTP               string     `json:"-"`           // Current one-time code, empty when none
	OTPExpiration     *time.Time `json:"-"`           // Expiry paired with OTP
	ResetTokenID      string     `json:"-"`           // jti of the outstanding reset token, empty when none
	PasswordChangedAt *time.Time `json:"-"`           // Last password change after registration
	CreatedAt         time.Time  `json:"createdAt"`   // Creation timestamp
	UpdatedAt         time.Time  `json:"updatedAt"`   // Last update timestamp
}

// ActiveOTP returns the stored code when one is present and not expired at now.
func (u *UserDB) ActiveOTP(now time.Time) (string, bool) {
	if u.OTP == "" || u.OTPExpiration == nil {
		return "", false
	}
	if now.After(*u.OTPExpiration) {
		return "", false
	}
	return u.OTP, true
}

// OTPExpired reports whether a code is stored but its expiry has passed.
func (u *UserDB) OTPExpired(now time.Time) bool {
	return u.OTP != "" && (u.OTPExpiration == nil || now.After(*u.OTPExpiration))
}

// MissingResetFields lists the fields the password reset flow depends on that are empty.
func (u *UserDB) MissingResetFields() []string {
	var missing []string
	if strings.TrimSpace(u.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(u.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if !IsValidCategory(u.Category) {
		missing = append(missing, "category")
	}
	return missing
}

// IsValidCategory reports whether c is one of the allowed user categories.
func IsValidCategory(c string) bool {
	return c == CategoryHome || c == CategoryShop
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Registration carries the fields submitted to create an account.
type Registration struct {
	Username    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Address     string
	Category    string
	Password    string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	FirstName string
	Username  string
}

// ProfileUpdate is a partial profile change. Nil fields stay unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Address     *string
	Category    *string
	Password    *string
}

// UserUpdate is the storage-level partial update derived from ProfileUpdate.
type UserUpdate struct {
	FirstName         *string
	LastName          *string
	PhoneNumber       *string
	Address           *string
	Category          *string
	PasswordHash      *string
	PasswordChangedAt *time.Time
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.PhoneNumber == nil &&
		u.Address == nil && u.Category == nil && u.PasswordHash == nil
}
