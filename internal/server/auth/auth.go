package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/ecorewards/ecorewards/internal/server/email"
	"github.com/ecorewards/ecorewards/internal/server/users"
	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"
)

// Mailer delivers OTP emails
type Mailer interface {
	Send(ctx context.Context, info *email.EmailInfo) error
}

type AuthService struct {
	config        *Config
	users         *users.UserStore
	mailer        Mailer
	codes         *expirable.LRU[string, string]   // otp type + email -> code
	revoked       *expirable.LRU[string, struct{}] // session ids and rotated refresh token ids
	emailTemplate *template.Template
	now           func() time.Time
}

func NewAuthService(config *Config, store *users.UserStore, mailer Mailer) *AuthService {
	return &AuthService{
		config:        config,
		users:         store,
		mailer:        mailer,
		codes:         expirable.NewLRU[string, string](0, nil, config.OTPExpiry),
		revoked:       expirable.NewLRU[string, struct{}](0, nil, config.RefreshTokenExpiry),
		emailTemplate: template.Must(template.New("authmail").Parse(emailTemplate)),
		now:           time.Now,
	}
}

// SignUp creates an account and mails a confirmation code. No session is issued until the
// address is confirmed through Verify with OTPTypeSignup or the user signs in.
func (s *AuthService) SignUp(ctx context.Context, userEmail, password string) (*users.User, error) {
	userEmail, err := normalizeEmail(userEmail)
	if err != nil {
		return nil, err
	}

	if err := s.checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, userEmail, string(hash))
	if errors.Is(err, users.ErrUserExists) {
		return nil, ErrUserExists
	} else if err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user", user.ID)

	if err := s.issueOTP(ctx, OTPTypeSignup, user.Email); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, userEmail, password string) (*Session, error) {
	userEmail, err := normalizeEmail(userEmail)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, userEmail)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	// otp-only accounts have no password until one is set
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.config.RequireConfirmedEmail && !user.Confirmed() {
		return nil, ErrEmailNotConfirmed
	}

	return s.startSession(user)
}

// SendOTP mails a one-time code used to sign in or recover a password. With createUser unset an
// unknown email is rejected.
func (s *AuthService) SendOTP(ctx context.Context, userEmail string, createUser bool) error {
	userEmail, err := normalizeEmail(userEmail)
	if err != nil {
		return err
	}

	_, err = s.users.GetByEmail(ctx, userEmail)
	if errors.Is(err, users.ErrUserNotFound) {
		if !createUser {
			return ErrSignupNotAllowed
		}
		if _, err := s.users.Create(ctx, userEmail, ""); err != nil && !errors.Is(err, users.ErrUserExists) {
			return err
		}
	} else if err != nil {
		return err
	}

	return s.issueOTP(ctx, OTPTypeEmail, userEmail)
}

// Verify consumes a one-time code and signs the user in. Either code type confirms the email.
func (s *AuthService) Verify(ctx context.Context, otpType OTPType, userEmail, code string) (*Session, error) {
	if !otpType.Valid() {
		return nil, ErrInvalidOTPType
	}

	userEmail, err := normalizeEmail(userEmail)
	if err != nil {
		return nil, ErrInvalidOTP
	}

	key := otpKey(otpType, userEmail)
	stored, ok := s.codes.Get(key)
	if !ok || stored != code {
		return nil, ErrInvalidOTP
	}
	s.codes.Remove(key)

	user, err := s.users.GetByEmail(ctx, userEmail)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidOTP
	} else if err != nil {
		return nil, err
	}

	if !user.Confirmed() {
		if user, err = s.users.ConfirmEmail(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	return s.startSession(user)
}

// Refresh rotates a refresh token. The old token cannot be used again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := ParseClaims(refreshToken, s.config.RefreshTokenSecret, s.config.TokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.validateType(RefreshToken); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if s.isRevoked(claims.SessionID) || s.isRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrRevokedToken
	} else if err != nil {
		return nil, err
	}

	s.revoked.Add(claims.ID, struct{}{})
	return newSession(user, claims.SessionID, s.config, s.now())
}

// ValidateAccessToken returns the claims of a valid, unrevoked access token
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := ParseClaims(accessToken, s.config.AccessTokenSecret, s.config.TokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.validateType(AccessToken); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if s.isRevoked(claims.SessionID) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*users.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID, password string) (*users.User, error) {
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.SetPasswordHash(ctx, userID, string(hash))
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	}

	slog.Info("password updated", "user", user.ID)
	return user, nil
}

// SignOut revokes every token issued for the session
func (s *AuthService) SignOut(ctx context.Context, claims *Claims) {
	s.revoked.Add(claims.SessionID, struct{}{})
	slog.Info("user signed out", "user", claims.Subject, "session", claims.SessionID)
}

func (s *AuthService) startSession(user *users.User) (*Session, error) {
	session, err := newSession(user, uuid.NewString(), s.config, s.now())
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return session, nil
}

func (s *AuthService) issueOTP(ctx context.Context, otpType OTPType, userEmail string) error {
	code, err := utils.RandDigits(s.config.OTPLength)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	s.codes.Add(otpKey(otpType, userEmail), code)

	if err := s.sendOTPEmail(ctx, otpType, userEmail, code); err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

func (s *AuthService) sendOTPEmail(ctx context.Context, otpType OTPType, to, code string) error {
	subject, heading, intro := "Your EcoRewards code", "Your one-time code", "Use this code to sign in or reset your password."
	if otpType == OTPTypeSignup {
		subject, heading, intro = "Confirm your EcoRewards account", "Welcome to EcoRewards", "Use this code to confirm your email address."
	}

	var buf bytes.Buffer
	if err := s.emailTemplate.Execute(&buf, map[string]any{
		"Heading":      heading,
		"Intro":        intro,
		"Email":        to,
		"Code":         code,
		"Year":         s.now().Year(),
		"ValidityMins": int(s.config.OTPExpiry.Minutes()),
	}); err != nil {
		return err
	}

	return s.mailer.Send(ctx, &email.EmailInfo{
		ToEmail:  to,
		Subject:  subject,
		TextBody: fmt.Sprintf("%s: %s", intro, code),
		HTMLBody: buf.String(),
	})
}

func (s *AuthService) checkPassword(password string) error {
	if len(password) < s.config.MinPasswordLength {
		return &WeakPasswordError{MinLength: s.config.MinPasswordLength}
	}
	return nil
}

func (s *AuthService) isRevoked(id string) bool {
	return id != "" && s.revoked.Contains(id)
}

func normalizeEmail(userEmail string) (string, error) {
	userEmail = utils.NormalizeEmail(userEmail)
	if err := utils.ValidateEmail(userEmail); err != nil {
		return "", ErrInvalidEmail
	}
	return userEmail, nil
}

func otpKey(otpType OTPType, userEmail string) string {
	return string(otpType) + ":" + userEmail
}
