package auth

import "github.com/ecorewards/ecorewards/internal/server/users"

// SignUpRequest creates an account with a password
type SignUpRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUpResponse carries the created user. No session is issued before confirmation.
type SignUpResponse struct {
	User *users.User `json:"user"`
}

// PasswordGrantRequest is the body of /token?grant_type=password
type PasswordGrantRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshGrantRequest is the body of /token?grant_type=refresh_token
type RefreshGrantRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// OTPRequest asks for a one-time code to be mailed
type OTPRequest struct {
	Email      string `json:"email" binding:"required"`
	CreateUser bool   `json:"create_user"`
}

// VerifyRequest exchanges a one-time code for a session
type VerifyRequest struct {
	Type  string `json:"type" binding:"required"`
	Email string `json:"email" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// UpdateUserRequest changes attributes of the signed in user
type UpdateUserRequest struct {
	Password string `json:"password"`
}
