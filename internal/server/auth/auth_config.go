package auth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ecorewards/ecorewards/internal/utils"
)

type Config struct {
	TokenIssuer           string        `mapstructure:"token_issuer"`
	AccessTokenSecret     string        `mapstructure:"access_token_secret"`
	AccessTokenExpiry     time.Duration `mapstructure:"access_token_expiry"`
	RefreshTokenSecret    string        `mapstructure:"refresh_token_secret"`
	RefreshTokenExpiry    time.Duration `mapstructure:"refresh_token_expiry"`
	OTPLength             int           `mapstructure:"otp_length"`
	OTPExpiry             time.Duration `mapstructure:"otp_expiry"`
	MinPasswordLength     int           `mapstructure:"min_password_length"`
	RequireConfirmedEmail bool          `mapstructure:"require_confirmed_email"`
}

func (c *Config) Validate() error {
	if c.TokenIssuer == "" {
		return fmt.Errorf("auth `token_issuer` is required")
	}
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("auth `access_token_secret` is required")
	}
	if c.RefreshTokenSecret == "" {
		return fmt.Errorf("auth `refresh_token_secret` is required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("auth `access_token_secret` and `refresh_token_secret` must differ")
	}
	if c.AccessTokenExpiry <= 0 {
		return fmt.Errorf("auth `access_token_expiry` must be positive")
	}
	if c.OTPLength < 6 || c.OTPLength > 10 {
		return fmt.Errorf("auth `otp_length` must be between 6 and 10")
	}
	if c.OTPExpiry <= 0 {
		return fmt.Errorf("auth `otp_expiry` must be positive")
	}
	if c.MinPasswordLength < 6 {
		return fmt.Errorf("auth `min_password_length` must be at least 6")
	}
	return nil
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("token_issuer", c.TokenIssuer),
		slog.String("access_token_secret", utils.MaskSecret(c.AccessTokenSecret)),
		slog.Duration("access_token_expiry", c.AccessTokenExpiry),
		slog.String("refresh_token_secret", utils.MaskSecret(c.RefreshTokenSecret)),
		slog.Duration("refresh_token_expiry", c.RefreshTokenExpiry),
		slog.Int("otp_length", c.OTPLength),
		slog.Duration("otp_expiry", c.OTPExpiry),
		slog.Bool("require_confirmed_email", c.RequireConfirmedEmail),
	)
}
