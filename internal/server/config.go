package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecorewards/ecorewards/internal/server/auth"
	"github.com/ecorewards/ecorewards/internal/server/email"
	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/ulule/limiter/v3"
)

const (
	DefaultAddr           = "127.0.0.1:9999"
	DefaultDBPath         = "./data/authd.db"
	DefaultEmailRateLimit = "30-H"
)

type Config struct {
	HTTP           HTTPConfig   `mapstructure:"http"`
	Auth           auth.Config  `mapstructure:"auth"`
	Email          email.Config `mapstructure:"email"`
	DBPath         string       `mapstructure:"db_path"`
	APIKey         string       `mapstructure:"api_key"`
	EmailRateLimit string       `mapstructure:"email_rate_limit"`
}

type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

func (c HTTPConfig) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http `addr` is required")
	}

	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return errors.New("http `cert_file` and `key_file` must be set together")
	}

	if c.HTTP.TLSEnabled() {
		for _, f := range []string{c.HTTP.CertFile, c.HTTP.KeyFile} {
			if !utils.FileExists(f) {
				return fmt.Errorf("http tls file %q not found", f)
			}
		}
	}

	if c.DBPath == "" {
		return errors.New("`db_path` is required")
	}

	if _, err := limiter.NewRateFromFormatted(c.EmailRateLimit); err != nil {
		return fmt.Errorf("`email_rate_limit`: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return err
	}

	return c.Email.Validate()
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.HTTP.Addr),
		slog.Bool("tls", c.HTTP.TLSEnabled()),
		slog.String("db_path", c.DBPath),
		slog.String("api_key", utils.MaskSecret(c.APIKey)),
		slog.String("email_rate_limit", c.EmailRateLimit),
		slog.Any("auth", c.Auth),
		slog.Any("email", c.Email),
	)
}
