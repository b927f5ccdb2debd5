package authsdk

import (
	"fmt"
	"runtime"

	"github.com/ecorewards/ecorewards/internal/version"
)

const (
	HeaderAPIKey        = "apikey"
	HeaderClientVersion = "X-Client-Version"
	HeaderDeviceID      = "X-Device-Id"
)

const (
	pathSignUp = "/auth/v1/signup"
	pathToken  = "/auth/v1/token"
	pathOTP    = "/auth/v1/otp"
	pathVerify = "/auth/v1/verify"
	pathUser   = "/auth/v1/user"
	pathLogout = "/auth/v1/logout"

	grantPassword     = "password"
	grantRefreshToken = "refresh_token"
)

var UserAgent = fmt.Sprintf("EcoRewards/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshGrantRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type OTPRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

type VerifyRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type UpdateUserRequest struct {
	Password string `json:"password,omitempty"`
}
