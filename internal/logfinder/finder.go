// Package logfinder provides dedicated server log directory and file detection.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogDir is the environment variable name for specifying log directory.
const EnvLogDir = "LAPWATCH_LOGDIR"

// DefaultPattern matches the session logs written by the server, one per start.
const DefaultPattern = "output_*"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// DefaultLogDirs returns candidate session log directories in priority order.
func DefaultLogDirs() []string {
	var dirs []string

	programFiles := os.Getenv("ProgramFiles(x86)")
	if programFiles == "" {
		programFiles = os.Getenv("ProgramFiles")
	}
	if programFiles != "" {
		dirs = append(dirs, filepath.Join(programFiles,
			"Steam", "steamapps", "common", "assettocorsa", "server", "logs", "session"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home,
			".steam", "steam", "steamapps", "common", "assettocorsa", "server", "logs", "session"))
	}

	// Relative to a server working directory
	dirs = append(dirs, filepath.Join("logs", "session"))

	return dirs
}

// FindLogDir returns the session log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. LAPWATCH_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// The directory may still be empty: the server writes a new log on every
// start. Returns ErrLogDirNotFound if no valid directory is found.
// The returned path has symlinks resolved for consistency.
func FindLogDir(explicit string) (string, error) {
	// 1. Check explicit
	if explicit != "" {
		if resolved := resolveLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid", ErrLogDirNotFound)
	}

	// 2. Check environment variable
	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	// 3. Auto-detect
	for _, dir := range DefaultLogDirs() {
		if resolved := resolveLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// FindLogFiles returns the regular files in dir matching pattern, in
// lexical order. Session logs carry their start time in the name, so this
// is also chronological order. An empty result is not an error.
func FindLogFiles(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("globbing log files: %w", err)
	}

	files := matches[:0]
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			// Skip files that can't be stat'd (deleted, permission issues, etc.)
			continue
		}
		// Also skip non-regular files (directories, symlinks, etc.)
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the path to the most recently modified file in
// dir matching pattern.
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir, pattern string) (string, error) {
	matches, err := FindLogFiles(dir, pattern)
	if err != nil {
		return "", err
	}

	// Stat files once and cache results to avoid race conditions
	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	// Sort by cached modification time (newest first)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	return candidates[0].path, nil
}

// resolveLogDir resolves symlinks and validates the directory.
// Returns the resolved path if valid, empty string otherwise.
func resolveLogDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	// Resolve symlinks (works with Windows Junctions in Go 1.20+)
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		// Symlink resolution failed - treat as invalid directory
		return ""
	}
	return resolved
}
