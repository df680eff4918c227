package lapwatch

import (
	"errors"
	"fmt"

	"github.com/lapwatch/lapwatch-go/internal/laptime"
	"github.com/lapwatch/lapwatch-go/internal/logfinder"
)

// Sentinel errors.
var (
	ErrWatcherClosed   = errors.New("watcher closed")
	ErrAlreadyWatching = errors.New("watch already called")

	// ErrMalformedDuration is wrapped by line errors whose lap time could not
	// be parsed.
	ErrMalformedDuration = laptime.ErrMalformedDuration

	// ErrLogDirNotFound is returned when no log directory could be resolved.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound
	// ErrNoLogFiles is returned when the log directory holds no log files.
	ErrNoLogFiles = logfinder.ErrNoLogFiles
)

// WatchOp identifies the watcher operation that failed.
type WatchOp string

const (
	WatchOpPoll   WatchOp = "poll"
	WatchOpFollow WatchOp = "follow"
)

// WatchError is a failure of the watch loop itself, as opposed to a single line.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// LineError reports a log line that could not be applied.
// The line is skipped and the watcher moves on.
type LineError struct {
	Path string
	Line string
	Err  error
}

func (e *LineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("line %q in %s: %v", e.Line, e.Path, e.Err)
	}
	return fmt.Sprintf("line %q: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// StorageError reports a failed write to the Store. The affected lap is lost;
// reconciliation state is not rolled back.
type StorageError struct {
	Op  string
	Lap Lap
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s for %s @ %s: %v", e.Op, e.Lap.Player, e.Lap.Track, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
