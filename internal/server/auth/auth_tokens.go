package auth

import (
	"fmt"
	"time"

	"github.com/ecorewards/ecorewards/internal/server/users"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTypeBearer = "bearer"

// Session is returned by every endpoint that signs a user in
type Session struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         *users.User `json:"user"`
}

func newSession(user *users.User, sessionID string, config *Config, now time.Time) (*Session, error) {
	access, err := newToken(user, sessionID, AccessToken, config.TokenIssuer, config.AccessTokenSecret, config.AccessTokenExpiry, now)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	refresh, err := newToken(user, sessionID, RefreshToken, config.TokenIssuer, config.RefreshTokenSecret, config.RefreshTokenExpiry, now)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return &Session{
		AccessToken:  access,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(config.AccessTokenExpiry.Seconds()),
		ExpiresAt:    now.Add(config.AccessTokenExpiry).Unix(),
		RefreshToken: refresh,
		User:         user,
	}, nil
}

func newToken(user *users.User, sessionID string, tokenType TokenType, issuer, secret string, expiry time.Duration, now time.Time) (string, error) {
	var expiresAt *jwt.NumericDate
	if expiry > 0 {
		expiresAt = jwt.NewNumericDate(now.Add(expiry))
	}

	claims := Claims{
		Type:      tokenType,
		Email:     user.Email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    issuer,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
