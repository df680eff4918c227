// Command lapwatch records lap times from dedicated server session logs.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lapwatch/lapwatch-go/internal/config"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "lapwatch",
	Short: "Record lap times from dedicated server logs",
	Long: `lapwatch follows the session logs of a racing dedicated server,
resolves every completed lap to its driver, car and track, and stores
clean laps in a SQLite database.

Laps with cuts are ignored. Laps driven before the driver's car is known
are held and stored as soon as it is.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns a text logger on w, at debug level with --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the --config file. Without one, an empty configuration
// is returned and flags and defaults apply.
func loadConfig() (*config.File, error) {
	if configPath == "" {
		return &config.File{Version: config.SupportedVersion}, nil
	}
	cf, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cf, nil
}
