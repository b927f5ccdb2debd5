package authsdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL    = errors.New("sdk: server url missing")
	ErrNoRefreshToken = errors.New("sdk: refresh token missing")
	ErrNoSession      = errors.New("Auth session missing!")
)

const (
	CodeInvalidRequest = "E_INVALID_REQUEST"
	CodeRateLimited    = "E_RATE_LIMITED"
	CodeInternalError  = "E_INTERNAL_ERROR"
	CodeUnknownError   = "E_UNKNOWN_ERR"

	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"
	CodeAuthUserExists            = "E_AUTH_USER_EXISTS"
	CodeAuthEmailNotConfirmed     = "E_AUTH_EMAIL_NOT_CONFIRMED"
	CodeAuthSignupNotAllowed      = "E_AUTH_SIGNUP_NOT_ALLOWED"
	CodeAuthOTPVerificationFailed = "E_AUTH_OTP_VERIFICATION_FAILED"
	CodeAuthWeakPassword          = "E_AUTH_WEAK_PASSWORD"
	CodeAuthSessionMissing        = "E_AUTH_SESSION_MISSING"
)

// APIError is the error body returned by the auth server. Error returns the server message as-is
// so it can be shown to the user.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// handleAPIError turns a transport failure or an error response into a Go error
func handleAPIError(resp *req.Response, requestErr error, apiErr *APIError, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("%s: %w", operation, requestErr)
	}

	if resp.IsErrorState() {
		apiErr.Status = resp.StatusCode
		if apiErr.Message == "" {
			apiErr.Code = CodeUnknownError
			apiErr.Message = fmt.Sprintf("%s failed: %s", operation, resp.Status)
		}
		return apiErr
	}

	return nil
}
