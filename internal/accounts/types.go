// Package accounts handles sign-up, sign-in and session tokens. The
// administrator and the demo user are fixed credential pairs checked before
// (admin) and after (demo) the registered-users collection.
package accounts

import "errors"

// Role is the access level of a session.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// UserProfile is a registered user. Password holds a bcrypt hash; entries
// written before hashing was introduced may still hold plaintext until the
// user next signs in.
type UserProfile struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	NIC      string `json:"nic"`
	Phone    string `json:"phone"`
}

// Public returns a copy without the password.
func (u UserProfile) Public() UserProfile {
	u.Password = ""
	return u
}

// SignupRequest is the registration form.
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	NIC      string `json:"nic" validate:"omitempty,max=12"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the outcome of a successful sign-in or sign-up.
type Session struct {
	Role Role        `json:"role"`
	User UserProfile `json:"user"`
	// ShowOnboarding is set when the user has not finished the onboarding tour.
	ShowOnboarding bool `json:"showOnboarding"`
}

// Errors shown to the user as-is.
var (
	ErrInvalidCredentials = errors.New("Credentials mismatch.")
	ErrMissingFields      = errors.New("Please fill all required fields.")
	ErrEmailTaken         = errors.New("An account with this email already exists.")
	ErrNotFound           = errors.New("user not found")
)

// Fixed identities.
const (
	AdminID   = "admin"
	DemoID    = "demo"
	DemoEmail = "user@mediguide.lk"
	demoPass  = "user123"
)

// DemoProfile is the built-in demo account.
func DemoProfile() UserProfile {
	return UserProfile{
		ID:       DemoID,
		FullName: "Demo User",
		Email:    DemoEmail,
		NIC:      "000000000V",
		Phone:    "0771234567",
	}
}
