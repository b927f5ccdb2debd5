package main

import (
	"fmt"
	"log/slog"

	"github.com/ecorewards/ecorewards/internal/authsdk"
	"github.com/ecorewards/ecorewards/internal/client/config"
)

// newSessionClient returns a client that resumes the stored session. Refresh tokens rotate on
// every use, so each new one is written back to the config right away.
func newSessionClient(cfg *config.Config) (*authsdk.Client, error) {
	if !cfg.LoggedIn() {
		return nil, fmt.Errorf("%w, run `ecorewards login` first", config.ErrNotLoggedIn)
	}

	return authsdk.New(
		&authsdk.Config{BaseURL: cfg.ServerURL, APIKey: cfg.APIKey},
		authsdk.WithSession(&authsdk.Session{RefreshToken: cfg.RefreshToken}),
		authsdk.WithSessionHook(func(s *authsdk.Session) {
			if s == nil || s.RefreshToken == "" || s.RefreshToken == cfg.RefreshToken {
				return
			}
			cfg.RefreshToken = s.RefreshToken
			if err := cfg.Save(); err != nil {
				slog.Warn("failed to save refreshed session", "error", err)
			}
		}),
	)
}
