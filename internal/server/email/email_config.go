package email

import (
	"fmt"
	"log/slog"

	"github.com/ecorewards/ecorewards/internal/utils"
)

type Config struct {
	Enabled        bool   `mapstructure:"enabled"`
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", c.Enabled),
		slog.String("sendgrid_api_key", utils.MaskSecret(c.SendgridAPIKey)),
		slog.String("from_email", c.FromEmail),
	)
}

func (c Config) Validate() error {
	if c.FromEmail != "" {
		if err := utils.ValidateEmail(c.FromEmail); err != nil {
			return fmt.Errorf("email `from_email`: %w", err)
		}
	}
	if c.Enabled {
		if c.SendgridAPIKey == "" {
			return fmt.Errorf("email `sendgrid_api_key` is required when email is enabled")
		}
		if c.FromEmail == "" {
			return fmt.Errorf("email `from_email` is required when email is enabled")
		}
	}
	return nil
}
