package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims are shared by access and refresh tokens. Subject is the user id and SessionID ties a
// token pair to the sign in that created it.
type Claims struct {
	Type      TokenType `json:"type"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	jwt.RegisteredClaims
}

// ParseClaims verifies the HS256 signature, expiry and issuer of a token
func ParseClaims(tokenString, secret, issuer string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	return claims, nil
}

func (c *Claims) validateType(t TokenType) error {
	if c.Type != t {
		return fmt.Errorf("wrong token type %q", c.Type)
	}
	return nil
}
