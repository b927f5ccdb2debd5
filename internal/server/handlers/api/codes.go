package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeNotFound       = "E_NOT_FOUND"       // no such route
	CodeInvalidAPIKey  = "E_INVALID_API_KEY" // apikey header missing or wrong

	// Auth errors
	CodeAuthInvalidCredentials    = "E_AUTH_INVALID_CREDENTIALS"     // email/password pair did not match
	CodeAuthUserExists            = "E_AUTH_USER_EXISTS"             // sign up with a registered email
	CodeAuthEmailNotConfirmed     = "E_AUTH_EMAIL_NOT_CONFIRMED"     // sign in before confirming the email
	CodeAuthSignupNotAllowed      = "E_AUTH_SIGNUP_NOT_ALLOWED"      // otp for an unknown email without create_user
	CodeAuthOTPVerificationFailed = "E_AUTH_OTP_VERIFICATION_FAILED" // wrong, reused or expired one-time code
	CodeAuthWeakPassword          = "E_AUTH_WEAK_PASSWORD"           // password below the minimum length
	CodeAuthInvalidToken          = "E_AUTH_INVALID_TOKEN"           // access or refresh token rejected
	CodeAuthSessionMissing        = "E_AUTH_SESSION_MISSING"         // bearer token required
	CodeAuthNotificationFailed    = "E_AUTH_NOTIFICATION_FAILED"     // otp email could not be sent
)
