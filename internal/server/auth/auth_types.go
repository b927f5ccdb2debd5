package auth

import (
	_ "embed"
	"errors"
	"fmt"
)

//go:embed authmail.html.tmpl
var emailTemplate string

// The messages are shown to end users as-is.
var (
	ErrInvalidEmail       = errors.New("Unable to validate email address: invalid format")
	ErrWeakPassword       = errors.New("weak password")
	ErrUserExists         = errors.New("User already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrSignupNotAllowed   = errors.New("Signups not allowed for otp")
	ErrInvalidOTP         = errors.New("Token has expired or is invalid")
	ErrInvalidOTPType     = errors.New("Verify requires a verification type")
	ErrInvalidToken       = errors.New("Invalid token: token is expired or malformed")
	ErrRevokedToken       = errors.New("Invalid Refresh Token: Refresh Token Not Found")
	ErrUserNotFound       = errors.New("User not found")
	ErrNotificationFailed = errors.New("Error sending confirmation email")
)

// OTPType is the purpose a one-time code was issued for
type OTPType string

const (
	OTPTypeEmail  OTPType = "email"  // sign in / password recovery
	OTPTypeSignup OTPType = "signup" // confirm a new account
)

func (t OTPType) Valid() bool {
	return t == OTPTypeEmail || t == OTPTypeSignup
}

// WeakPasswordError matches ErrWeakPassword with errors.Is
type WeakPasswordError struct {
	MinLength int
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("Password should be at least %d characters.", e.MinLength)
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}
