// Package config loads the optional lapwatch YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lapwatch/lapwatch-go/internal/safefile"
)

const (
	// MaxFileSize is the maximum allowed size for a configuration file (64KB).
	MaxFileSize = 64 * 1024

	// SupportedVersion is the currently supported configuration format version.
	SupportedVersion = 1
)

// Formats lists the accepted output formats.
var Formats = []string{"pretty", "jsonl"}

// File is the structure of a configuration file. Zero values mean "not set";
// command line flags and built-in defaults fill them in.
//
// Example YAML file:
//
//	version: 1
//	log_dir: /srv/acserver/logs/session
//	file_pattern: output_*
//	db_path: /var/lib/lapwatch/laptimes.db
//	poll_interval: 500ms
//	format: jsonl
//	from_start: false
//	track_names: /etc/lapwatch/track_names.json
type File struct {
	Version      int           `yaml:"version"`
	LogDir       string        `yaml:"log_dir"`
	FilePattern  string        `yaml:"file_pattern"`
	FollowFile   string        `yaml:"follow_file"`
	DBPath       string        `yaml:"db_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Format       string        `yaml:"format"`
	FromStart    *bool         `yaml:"from_start"`
	TrackNames   string        `yaml:"track_names"`
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// sanitizePathError removes the path from os.PathError so error messages
// don't expose file system paths.
func sanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}

// Load reads and validates the configuration file at path.
// Only regular files are accepted and reads are capped at MaxFileSize.
func Load(path string) (*File, error) {
	data, err := readFile(path, "config")
	if err != nil {
		return nil, err
	}
	return LoadBytes(data)
}

// readFile reads a small regular file, naming it kind in errors.
func readFile(path, kind string) ([]byte, error) {
	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefile.ErrNotRegularFile) {
			return nil, fmt.Errorf("%s file must be a regular file (not FIFO, device, or special file)", kind)
		}
		return nil, fmt.Errorf("failed to open %s file: %w", kind, sanitizePathError(err))
	}
	defer f.Close()

	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%s file too large: %d bytes (max %d)", kind, info.Size(), MaxFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file: %w", kind, sanitizePathError(err))
	}
	return data, nil
}

// LoadBytes parses and validates a configuration from a byte slice.
func LoadBytes(data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, errors.New("config file is empty")
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), MaxFileSize)
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Validate checks the configuration for unsupported or conflicting values.
func (cf *File) Validate() error {
	if cf.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", cf.Version, SupportedVersion),
		}
	}
	if cf.PollInterval < 0 {
		return &ValidationError{
			Field:   "poll_interval",
			Message: fmt.Sprintf("must not be negative, got %v", cf.PollInterval),
		}
	}
	if cf.FilePattern != "" {
		if _, err := filepath.Match(cf.FilePattern, ""); err != nil {
			return &ValidationError{
				Field:   "file_pattern",
				Message: fmt.Sprintf("invalid glob %q", cf.FilePattern),
			}
		}
	}
	if cf.Format != "" && !slices.Contains(Formats, cf.Format) {
		return &ValidationError{
			Field:   "format",
			Message: fmt.Sprintf("unknown format %q (want one of %v)", cf.Format, Formats),
		}
	}
	if cf.LogDir != "" && cf.FollowFile != "" {
		return &ValidationError{
			Field:   "follow_file",
			Message: "cannot be combined with log_dir",
		}
	}
	return nil
}
