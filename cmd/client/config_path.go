package main

import (
	"os"
	"path/filepath"

	"github.com/ecorewards/ecorewards/internal/client/config"
	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/spf13/cobra"
)

const envConfigPath = "ECOREWARDS_CONFIG_PATH"

var home, _ = os.UserHomeDir()

// resolveConfigPath picks the config file in this order:
// the --config flag, ECOREWARDS_CONFIG_PATH, an existing file in a known location, the default.
func resolveConfigPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		return f.Value.String()
	}

	if envPath := os.Getenv(envConfigPath); envPath != "" {
		return envPath
	}

	candidates := []string{
		config.DefaultConfigPath,
		filepath.Join(home, ".config", "ecorewards", "config.json"),
	}
	for _, candidate := range candidates {
		if utils.FileExists(candidate) {
			return candidate
		}
	}

	return config.DefaultConfigPath
}
