package authflow

import "context"

// OTPTypeEmail verifies a one-time code that was mailed to the address and proves control of it.
const OTPTypeEmail = "email"

// AuthProvider is the external identity service the flow delegates to.
// Each method is one remote call; a non-nil error carries a user-presentable message.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string) error
	SignInWithPassword(ctx context.Context, email, password string) error
	SendOTP(ctx context.Context, email string, createUser bool) error
	VerifyOTP(ctx context.Context, email, code, otpType string) error
	UpdatePassword(ctx context.Context, newPassword string) error
}
