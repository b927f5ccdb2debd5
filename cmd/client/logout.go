package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecorewards/ecorewards/internal/client/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLogoutCmd())
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			out := cmd.OutOrStdout()

			client, err := newSessionClient(cfg)
			if errors.Is(err, config.ErrNotLoggedIn) {
				fmt.Fprintln(out, gray.Render("Not logged in"))
				return nil
			} else if err != nil {
				return err
			}

			// a dead session still gets cleared locally
			err = client.RefreshSession(cmd.Context())
			if err == nil {
				err = client.SignOut(cmd.Context())
			}
			if err != nil {
				slog.Warn("server sign out failed", "error", err)
			}

			cfg.ClearSession()
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Fprintf(out, "%s %s\n", green.Render("Logged out"), cfg.Email)
			return nil
		},
	}
}
