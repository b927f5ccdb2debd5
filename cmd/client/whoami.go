package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ecorewards/ecorewards/internal/authsdk"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newWhoamiCmd())
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			client, err := newSessionClient(cfg)
			if err != nil {
				return err
			}

			if err := client.RefreshSession(cmd.Context()); err != nil {
				return fmt.Errorf("session expired, run `ecorewards login` again: %w", err)
			}

			user, err := client.GetUser(cmd.Context())
			if err != nil {
				return err
			}

			confirmed := red.Render("no")
			if user.Confirmed() {
				confirmed = green.Render("yes")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cyan.Bold(true).Render("ECOREWARDS ACCOUNT"))
			printField(out, "Email", user.Email)
			printField(out, "ID", user.ID)
			fmt.Fprintf(out, "%s%s\n", gray.Render(fmt.Sprintf("%-9s", "Verified")), confirmed)
			printField(out, "Joined", humanize.Time(user.CreatedAt))
			if expiry, ok := sessionExpiry(client.Session()); ok {
				printField(out, "Expires", humanize.Time(expiry))
			}
			printField(out, "Server", cfg.ServerURL)
			return nil
		},
	}
}

// sessionExpiry prefers the expiry the server reported and falls back to the token claims
func sessionExpiry(s *authsdk.Session) (time.Time, bool) {
	if !s.Valid() {
		return time.Time{}, false
	}
	if s.ExpiresAt > 0 {
		return s.ExpiryTime(), true
	}
	claims, err := authsdk.ParseAccessToken(s.AccessToken)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
