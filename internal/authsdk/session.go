package authsdk

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

// refresh a little before the server would reject the token
const expirySkew = 30 * time.Second

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// Session is the token pair handed out by the auth server
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// Expired reports whether the access token is within expirySkew of its expiry
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(expirySkew).Unix() >= s.ExpiresAt
}

func (s *Session) ExpiryTime() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

func (s *Session) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("access_token", utils.MaskSecret(s.AccessToken)),
		slog.String("refresh_token", utils.MaskSecret(s.RefreshToken)),
		slog.Time("expires_at", s.ExpiryTime()),
	}
	if s.User != nil {
		attrs = append(attrs, slog.String("user", utils.MaskEmail(s.User.Email)))
	}
	return slog.GroupValue(attrs...)
}

// AccessClaims are the claims the server puts in access tokens
type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessToken decodes the token claims without verifying the signature.
// The signing key lives on the server; the client only reads subject and expiry.
func ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	return claims, nil
}
