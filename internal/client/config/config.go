package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/gofrs/flock"
	"github.com/goccy/go-json"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".ecorewards", "config.json")
	DefaultLogFilePath = filepath.Join(home, ".ecorewards", "logs", "ecorewards.log")
	DefaultServerURL   = "https://auth.ecorewards.app"
)

var ErrNotLoggedIn = errors.New("not logged in")

type Config struct {
	ServerURL    string `json:"server_url"`
	APIKey       string `json:"api_key,omitempty"`
	Email        string `json:"email,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Path         string `json:"-"`
}

// Validate normalizes the email and resolves Path to an absolute path
func (c *Config) Validate() error {
	if err := utils.ValidateURL(c.ServerURL); err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	if c.Email != "" {
		c.Email = utils.NormalizeEmail(c.Email)
		if err := utils.ValidateEmail(c.Email); err != nil {
			return fmt.Errorf("invalid email: %w", err)
		}
	}

	if c.Path == "" {
		return errors.New("config path is required")
	}

	path, err := utils.ResolvePath(c.Path)
	if err != nil {
		return fmt.Errorf("config path: %w", err)
	}
	c.Path = path

	return nil
}

func (c *Config) LoggedIn() bool {
	return c.Email != "" && c.RefreshToken != ""
}

// ClearSession forgets the stored tokens but keeps the server settings
func (c *Config) ClearSession() {
	c.RefreshToken = ""
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("server_url", c.ServerURL),
		slog.String("email", c.Email),
		slog.String("refresh_token", utils.MaskSecret(c.RefreshToken)),
		slog.String("path", c.Path),
	)
}

// Save writes the config atomically while holding a lock next to the file. The file holds a
// refresh token, so it is only readable by the owner.
func (c *Config) Save() error {
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	lock := flock.New(c.Path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock config: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := c.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := os.Rename(tmp, c.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
