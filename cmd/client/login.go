package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ecorewards/ecorewards/internal/authflow"
	"github.com/ecorewards/ecorewards/internal/authsdk"
	"github.com/ecorewards/ecorewards/internal/client/config"
	"github.com/spf13/cobra"
)

var errLoginCancelled = errors.New("login process cancelled by user")

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

func newLoginCmd() *cobra.Command {
	var email string
	var signUp bool
	var passwordStdin bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to EcoRewards or create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			out := cmd.OutOrStdout()

			if cfg.LoggedIn() && !signUp {
				if !quiet {
					fmt.Fprintln(out, green.Render("**Already logged in**"))
					printConfig(out, cfg)
				}
				return nil
			}

			if email == "" {
				email = cfg.Email
			}
			mode := authflow.ModeSignIn
			if signUp {
				mode = authflow.ModeSignUp
			}

			client, err := authsdk.New(&authsdk.Config{BaseURL: cfg.ServerURL, APIKey: cfg.APIKey})
			if err != nil {
				return err
			}

			events := &flowEvents{}
			if passwordStdin {
				flow := newFlow(client, events, slog.Default())
				if err := loginWithPassword(cmd.Context(), flow, cmd.InOrStdin(), email, mode); err != nil {
					return err
				}
				return finishLogin(out, cfg, client, events, email, quiet)
			}

			// the TUI owns the terminal, keep logs in the file only
			prev := slog.Default()
			slog.SetDefault(fileLogger())
			flow := newFlow(client, events, slog.Default())
			err = RunLoginTUI(LoginTUIOpts{
				Context:    cmd.Context(),
				ServerURL:  cfg.ServerURL,
				ConfigPath: cfg.Path,
				Email:      email,
				Mode:       mode,
				Flow:       flow,
				Events:     events,
			})
			finalEmail := flow.State().Email
			slog.SetDefault(prev)
			if err != nil {
				return err
			}

			if finalEmail == "" {
				finalEmail = email
			}
			return finishLogin(out, cfg, client, events, finalEmail, quiet)
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address to sign in with")
	cmd.Flags().BoolVar(&signUp, "signup", false, "create a new account")
	cmd.Flags().StringP("server", "s", config.DefaultServerURL, "url of the auth server")
	cmd.Flags().String("apikey", "", "public api key of the auth server")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of opening the TUI")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable output")

	return cmd
}

func newFlow(provider authflow.AuthProvider, events *flowEvents, logger *slog.Logger) *authflow.Controller {
	flow := authflow.New(provider,
		authflow.WithHooks(events.hooks()),
		authflow.WithLogger(logger),
	)
	flow.Open()
	return flow
}

// loginWithPassword runs a single credentials submit without the TUI
func loginWithPassword(ctx context.Context, flow *authflow.Controller, in io.Reader, email string, mode authflow.Mode) error {
	if email == "" {
		return errors.New("--email is required with --password-stdin")
	}

	password, err := readLine(in)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	result, err := flow.SubmitCredentials(ctx, email, password, mode)
	if err != nil {
		return err
	}
	if result != authflow.ResultSucceeded {
		return errors.New(flow.State().Error)
	}
	return nil
}

// finishLogin persists whatever session the flow produced. Sign up yields no session until the
// email address is confirmed, so only the email is stored then.
func finishLogin(out io.Writer, cfg *config.Config, client *authsdk.Client, events *flowEvents, email string, quiet bool) error {
	if !events.Succeeded() {
		return errLoginCancelled
	}

	cfg.Email = email
	session := client.Session()
	if session.Valid() {
		cfg.RefreshToken = session.RefreshToken
		if session.User != nil && session.User.Email != "" {
			cfg.Email = session.User.Email
		}
	} else {
		cfg.ClearSession()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	if quiet {
		return nil
	}

	for _, notice := range events.Notices() {
		fmt.Fprintln(out, cyan.Render(notice))
	}
	if session.Valid() {
		fmt.Fprintf(out, "%s %s\n", green.Render("Signed in as"), cfg.Email)
	}
	printConfig(out, cfg)
	return nil
}

func readLine(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(sc.Text(), "\r"), nil
}

// flowEvents collects hook calls from the auth flow. Hooks fire on the goroutine running the
// provider call, so everything is behind a mutex.
type flowEvents struct {
	mu        sync.Mutex
	notices   []string
	succeeded bool
	closed    bool
}

func (e *flowEvents) hooks() authflow.Hooks {
	return authflow.Hooks{
		OnNotice: func(msg string) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.notices = append(e.notices, msg)
		},
		OnSuccess: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.succeeded = true
		},
		OnClose: func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.closed = true
		},
	}
}

func (e *flowEvents) Notices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.notices...)
}

func (e *flowEvents) Succeeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.succeeded
}

func (e *flowEvents) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
