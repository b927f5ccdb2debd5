package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ecorewards/ecorewards/internal/logging"
	"github.com/ecorewards/ecorewards/internal/server"
	"github.com/ecorewards/ecorewards/internal/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ECOREWARDS_AUTHD"

var rootCmd = &cobra.Command{
	Use:     "ecorewards-authd",
	Short:   "EcoRewards auth server",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true
		slog.Info("starting", "version", version.ShortWithApp(), "config", cfg)

		srv, err := server.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return srv.Start(cmd.Context())
	},
}

func init() {
	addFlags(rootCmd)
}

func addFlags(cmd *cobra.Command) {
	cmd.Flags().SortFlags = false
	cmd.Flags().StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	cmd.Flags().String("cert", "", "Path to the TLS certificate file")
	cmd.Flags().String("key", "", "Path to the TLS key file")
	cmd.Flags().String("db", server.DefaultDBPath, "Path to the sqlite database")
	cmd.Flags().StringP("config", "f", "", "Path to a config file (yaml, json or toml)")
}

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(logging.NewConsoleHandler(os.Stdout, slog.LevelDebug)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("ecorewards-authd", "error", err)
		os.Exit(1)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", server.DefaultAddr)
	v.SetDefault("http.cert_file", "")
	v.SetDefault("http.key_file", "")
	v.SetDefault("db_path", server.DefaultDBPath)
	v.SetDefault("api_key", "")
	v.SetDefault("email_rate_limit", server.DefaultEmailRateLimit)

	v.SetDefault("auth.token_issuer", "https://auth.ecorewards.app")
	v.SetDefault("auth.access_token_secret", "")
	v.SetDefault("auth.access_token_expiry", time.Hour)
	v.SetDefault("auth.refresh_token_secret", "")
	v.SetDefault("auth.refresh_token_expiry", 30*24*time.Hour)
	v.SetDefault("auth.otp_length", 6)
	v.SetDefault("auth.otp_expiry", 10*time.Minute)
	v.SetDefault("auth.min_password_length", 6)
	v.SetDefault("auth.require_confirmed_email", false)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.from_email", "no-reply@ecorewards.app")
	v.SetDefault("email.from_name", "EcoRewards")
}

// loadConfig merges defaults, the optional config file, ECOREWARDS_AUTHD_* env vars and flags,
// in increasing order of precedence.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	v := viper.New()
	setDefaults(v)

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("authd")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ecorewards")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"http.addr":      "bind",
		"http.cert_file": "cert",
		"http.key_file":  "key",
		"db_path":        "db",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, err
		}
	}

	var cfg server.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}
