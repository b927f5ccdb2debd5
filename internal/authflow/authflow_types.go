package authflow

import "fmt"

// View is the step of the authentication flow currently on screen.
type View int

const (
	ViewCredentials View = iota
	ViewForgotEmail
	ViewForgotOTP
	ViewResetPassword
)

func (v View) String() string {
	switch v {
	case ViewCredentials:
		return "credentials"
	case ViewForgotEmail:
		return "forgot_email"
	case ViewForgotOTP:
		return "forgot_otp"
	case ViewResetPassword:
		return "reset_password"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// Mode selects between signing in and creating an account. Only meaningful on ViewCredentials.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

func (m Mode) String() string {
	if m == ModeSignUp {
		return "sign_up"
	}
	return "sign_in"
}

// step carries the fields that only exist while a given view is active.
// The concrete type is the view; there is no separate view field to drift out of sync.
type step interface {
	view() View
}

type credentialsStep struct{}

type forgotEmailStep struct{}

type forgotOTPStep struct {
	code string
}

type resetPasswordStep struct {
	newPassword string
}

func (credentialsStep) view() View   { return ViewCredentials }
func (forgotEmailStep) view() View   { return ViewForgotEmail }
func (forgotOTPStep) view() View     { return ViewForgotOTP }
func (resetPasswordStep) view() View { return ViewResetPassword }

// State is a point-in-time copy of the controller, safe to read without locking.
type State struct {
	Open        bool
	View        View
	Mode        Mode
	Email       string
	Password    string
	OTPCode     string // empty unless View == ViewForgotOTP
	NewPassword string // empty unless View == ViewResetPassword
	Pending     bool
	Error       string
	Info        string
}

// Title is the heading shown for the active view.
func (s State) Title() string {
	switch s.View {
	case ViewForgotEmail:
		return "Reset Password"
	case ViewForgotOTP:
		return "Enter OTP"
	case ViewResetPassword:
		return "New Password"
	}
	if s.Mode == ModeSignUp {
		return "Create Account"
	}
	return "Welcome Back"
}

// Subtitle is the one-line hint under the title.
func (s State) Subtitle() string {
	switch s.View {
	case ViewForgotEmail:
		return "Enter your email to receive a code"
	case ViewForgotOTP:
		return "Code sent to " + s.Email
	case ViewResetPassword:
		return "Set a secure new password"
	}
	if s.Mode == ModeSignUp {
		return "Sign up to start earning rewards"
	}
	return "Sign in to access your wallet"
}

// SubmitLabel is the label of the primary action for the active view.
func (s State) SubmitLabel() string {
	switch s.View {
	case ViewForgotEmail:
		return "Send OTP Code"
	case ViewForgotOTP:
		return "Verify Code"
	case ViewResetPassword:
		return "Update Password"
	}
	if s.Mode == ModeSignUp {
		return "Create Account"
	}
	return "Sign In"
}

// CanGoBack reports whether the back control is available.
func (s State) CanGoBack() bool {
	return s.View != ViewCredentials
}
