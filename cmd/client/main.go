package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecorewards/ecorewards/internal/client/config"
	"github.com/ecorewards/ecorewards/internal/logging"
	"github.com/ecorewards/ecorewards/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "ECOREWARDS"
	envLogFile = "ECOREWARDS_LOG_FILE"
)

// logs is set up before any subcommand runs
var logs *logging.Logs

var rootCmd = &cobra.Command{
	Use:           "ecorewards",
	Short:         "EcoRewards CLI",
	Version:       version.Detailed(),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "EcoRewards config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logs != nil {
		logs.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red.Render("ERROR"), err)
		os.Exit(1)
	}
}

func setupLogging() error {
	if logs != nil {
		return nil
	}

	logFile := os.Getenv(envLogFile)
	if logFile == "" {
		logFile = config.DefaultLogFilePath
	}

	l, err := logging.Setup(logging.Options{
		Level:    slog.LevelInfo,
		Console:  os.Stderr,
		FilePath: logFile,
	})
	if err != nil {
		return err
	}

	logs = l
	slog.SetDefault(l.Logger())
	return nil
}

// fileLogger is used while the TUI owns the terminal
func fileLogger() *slog.Logger {
	if logs == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logs.FileLogger()
}

// loadConfig reads the config file, then applies ECOREWARDS_* env vars and the --server and
// --apikey flags of the running command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := resolveConfigPath(cmd)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("server_url", config.DefaultServerURL)
	v.SetDefault("api_key", "")
	v.SetDefault("email", "")
	v.SetDefault("refresh_token", "")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config read '%s': %w", path, err)
	}

	for key, flag := range map[string]string{"server_url": "server", "api_key": "apikey"} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := &config.Config{
		ServerURL:    v.GetString("server_url"),
		APIKey:       v.GetString("api_key"),
		Email:        v.GetString("email"),
		RefreshToken: v.GetString("refresh_token"),
		Path:         path,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
