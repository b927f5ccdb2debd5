package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ecorewards/ecorewards/internal/db"
	"github.com/ecorewards/ecorewards/internal/server/email"
	"github.com/ecorewards/ecorewards/internal/server/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codeRe = regexp.MustCompile(`\d{6}`)

type outbox struct {
	mu   sync.Mutex
	sent []*email.EmailInfo
}

func (o *outbox) Send(ctx context.Context, info *email.EmailInfo) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, info)
	return nil
}

// lastCode returns the code from the latest email sent to addr
func (o *outbox) lastCode(t *testing.T, addr string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].ToEmail == addr {
			code := codeRe.FindString(o.sent[i].TextBody)
			require.NotEmpty(t, code)
			return code
		}
	}
	t.Fatalf("no email sent to %s", addr)
	return ""
}

func testConfig() *Config {
	return &Config{
		TokenIssuer:        "https://auth.test",
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: 24 * time.Hour,
		OTPLength:          6,
		OTPExpiry:          5 * time.Minute,
		MinPasswordLength:  6,
	}
}

func newTestService(t *testing.T, config *Config) (*AuthService, *outbox) {
	t.Helper()
	sqldb, err := db.NewSqliteDB()
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	store, err := users.NewUserStore(sqldb)
	require.NoError(t, err)

	mail := &outbox{}
	return NewAuthService(config, store, mail), mail
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"issuer", func(c *Config) { c.TokenIssuer = "" }, "token_issuer"},
		{"access secret", func(c *Config) { c.AccessTokenSecret = "" }, "access_token_secret"},
		{"refresh secret", func(c *Config) { c.RefreshTokenSecret = "" }, "refresh_token_secret"},
		{"same secrets", func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }, "must differ"},
		{"access expiry", func(c *Config) { c.AccessTokenExpiry = 0 }, "access_token_expiry"},
		{"otp length", func(c *Config) { c.OTPLength = 4 }, "otp_length"},
		{"otp expiry", func(c *Config) { c.OTPExpiry = 0 }, "otp_expiry"},
		{"password length", func(c *Config) { c.MinPasswordLength = 3 }, "min_password_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestSignUp(t *testing.T) {
	svc, mail := newTestService(t, testConfig())

	user, err := svc.SignUp(t.Context(), "  Alice@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.Confirmed())

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Confirm your EcoRewards account", mail.sent[0].Subject)
	assert.Contains(t, mail.sent[0].HTMLBody, mail.lastCode(t, "alice@example.com"))

	_, err = svc.SignUp(t.Context(), "alice@example.com", "another1")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.EqualError(t, err, "User already registered")
}

func TestSignUpRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, testConfig())

	_, err := svc.SignUp(t.Context(), "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.SignUp(t.Context(), "alice@example.com", "abc")
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.EqualError(t, err, "Password should be at least 6 characters.")
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	_, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	session, err := svc.SignIn(t.Context(), "ALICE@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.Equal(t, "alice@example.com", session.User.Email)

	claims, err := svc.ValidateAccessToken(t.Context(), session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, err = svc.SignIn(t.Context(), "alice@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(t.Context(), "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInRequiresConfirmedEmail(t *testing.T) {
	config := testConfig()
	config.RequireConfirmedEmail = true
	svc, mail := newTestService(t, config)

	_, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.SignIn(t.Context(), "alice@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	session, err := svc.Verify(t.Context(), OTPTypeSignup, "alice@example.com", mail.lastCode(t, "alice@example.com"))
	require.NoError(t, err)
	assert.True(t, session.User.Confirmed())

	_, err = svc.SignIn(t.Context(), "alice@example.com", "hunter22")
	assert.NoError(t, err)
}

func TestSendOTP(t *testing.T) {
	svc, mail := newTestService(t, testConfig())

	err := svc.SendOTP(t.Context(), "nobody@example.com", false)
	assert.ErrorIs(t, err, ErrSignupNotAllowed)
	assert.Empty(t, mail.sent)

	require.NoError(t, svc.SendOTP(t.Context(), "new@example.com", true))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "Your EcoRewards code", mail.sent[0].Subject)

	// the otp-only account cannot sign in with a password
	_, err = svc.SignIn(t.Context(), "new@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify(t *testing.T) {
	svc, mail := newTestService(t, testConfig())
	_, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	signupCode := mail.lastCode(t, "alice@example.com")

	require.NoError(t, svc.SendOTP(t.Context(), "alice@example.com", false))
	code := mail.lastCode(t, "alice@example.com")

	_, err = svc.Verify(t.Context(), "magiclink", "alice@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTPType)

	_, err = svc.Verify(t.Context(), OTPTypeEmail, "alice@example.com", "000000x")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.EqualError(t, err, "Token has expired or is invalid")

	if signupCode != code {
		_, err = svc.Verify(t.Context(), OTPTypeEmail, "alice@example.com", signupCode)
		assert.ErrorIs(t, err, ErrInvalidOTP, "codes are scoped to their type")
	}

	session, err := svc.Verify(t.Context(), OTPTypeEmail, "alice@example.com", code)
	require.NoError(t, err)
	assert.True(t, session.User.Confirmed())

	_, err = svc.Verify(t.Context(), OTPTypeEmail, "alice@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP, "codes are single use")
}

func TestVerifyExpiredCode(t *testing.T) {
	config := testConfig()
	config.OTPExpiry = 20 * time.Millisecond
	svc, mail := newTestService(t, config)

	_, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	code := mail.lastCode(t, "alice@example.com")

	time.Sleep(50 * time.Millisecond)

	_, err = svc.Verify(t.Context(), OTPTypeSignup, "alice@example.com", code)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestRefreshRotates(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	_, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	session, err := svc.SignIn(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Refresh(t.Context(), session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token is not a refresh token")

	next, err := svc.Refresh(t.Context(), session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(t.Context(), session.RefreshToken)
	assert.ErrorIs(t, err, ErrRevokedToken)

	_, err = svc.Refresh(t.Context(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOutRevokesSession(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	_, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	session, err := svc.SignIn(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(t.Context(), session.AccessToken)
	require.NoError(t, err)
	svc.SignOut(t.Context(), claims)

	_, err = svc.ValidateAccessToken(t.Context(), session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Refresh(t.Context(), session.RefreshToken)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := newTestService(t, testConfig())
	user, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.UpdatePassword(t.Context(), user.ID, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.UpdatePassword(t.Context(), "missing", "n3w-password")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UpdatePassword(t.Context(), user.ID, "n3w-password")
	require.NoError(t, err)

	_, err = svc.SignIn(t.Context(), "alice@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(t.Context(), "alice@example.com", "n3w-password")
	assert.NoError(t, err)
}

func TestParseClaimsRejectsForeignTokens(t *testing.T) {
	config := testConfig()
	svc, _ := newTestService(t, config)
	user, err := svc.SignUp(t.Context(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	token, err := newToken(user, "sid", AccessToken, config.TokenIssuer, "other-secret", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(t.Context(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = newToken(user, "sid", AccessToken, "https://evil.test", config.AccessTokenSecret, time.Hour, time.Now())
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(t.Context(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = newToken(user, "sid", AccessToken, config.TokenIssuer, config.AccessTokenSecret, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(t.Context(), token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}
