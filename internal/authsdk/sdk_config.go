package authsdk

import (
	"fmt"
	"time"

	"github.com/ecorewards/ecorewards/internal/utils"
)

const (
	DefaultBaseURL = "https://auth.ecorewards.app"
	DefaultTimeout = 20 * time.Second
)

// Config is the configuration for the auth Client
type Config struct {
	BaseURL string        // BaseURL is required
	APIKey  string        // APIKey is the public (anon) key, optional for the dev provider
	Timeout time.Duration // Timeout bounds a single HTTP round trip, DefaultTimeout when zero
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}

	if err := utils.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: %w", ErrNoServerURL, err)
	}

	return nil
}
