package lapwatch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lapwatch/lapwatch-go/internal/logfinder"
)

// DefaultPollInterval is how often the watcher polls the log directory.
const DefaultPollInterval = time.Second

// WatchOption configures Watch behavior using the functional options pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logDir       string
	filePattern  string
	followFile   string // single file followed instead of polling logDir
	pollInterval time.Duration
	fromStart    bool
	logger       *slog.Logger
}

// defaultWatchConfig returns a watchConfig with sensible defaults.
func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		filePattern:  logfinder.DefaultPattern,
		pollInterval: DefaultPollInterval,
		fromStart:    true,
	}
}

// applyWatchOptions applies functional options to a watchConfig.
func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *watchConfig) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.filePattern == "" {
		return fmt.Errorf("file pattern must not be empty")
	}
	if _, err := filepath.Match(c.filePattern, ""); err != nil {
		return fmt.Errorf("file pattern %q: %w", c.filePattern, err)
	}
	if c.followFile != "" && c.logDir != "" {
		return fmt.Errorf("follow file and log directory are mutually exclusive")
	}
	return nil
}

// WithLogDir sets the server log directory.
// If not set, the LAPWATCH_LOGDIR environment variable and the default
// server locations are tried.
func WithLogDir(dir string) WatchOption {
	return func(c *watchConfig) {
		c.logDir = dir
	}
}

// WithFilePattern sets the glob matched against file names in the log
// directory. Default: "output_*".
func WithFilePattern(pattern string) WatchOption {
	return func(c *watchConfig) {
		c.filePattern = pattern
	}
}

// WithFollowFile follows a single file across rotation and truncation
// instead of polling a directory.
func WithFollowFile(path string) WatchOption {
	return func(c *watchConfig) {
		c.followFile = path
	}
}

// WithPollInterval sets how often the log directory is polled.
// Default: 1 second.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithReplayFromStart controls whether content already present when
// watching starts is applied. Default: true.
func WithReplayFromStart(fromStart bool) WatchOption {
	return func(c *watchConfig) {
		c.fromStart = fromStart
	}
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*reconcilerConfig)

type reconcilerConfig struct {
	logger *slog.Logger
}

func applyReconcilerOptions(opts []ReconcilerOption) *reconcilerConfig {
	cfg := &reconcilerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithReconcilerLogger sets a logger for state transitions.
// If logger is nil, logging is disabled.
func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(c *reconcilerConfig) {
		c.logger = logger
	}
}
