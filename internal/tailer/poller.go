// Package tailer yields newly appended lines from server log files.
package tailer

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/lapwatch/lapwatch-go/internal/logfinder"
	"github.com/lapwatch/lapwatch-go/internal/safefile"
)

// Batch holds the complete lines appended to one file since the previous poll.
type Batch struct {
	Path  string
	Lines []string
}

// Poller discovers log files by glob on every poll and tracks a byte
// offset per file, so each poll yields only complete lines appended since
// the previous one.
//
// A Poller is not safe for concurrent use.
type Poller struct {
	dir     string
	pattern string
	offsets map[string]int64
	log     *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithLogger sets a logger for debug output.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.log = logger
		}
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NewPoller creates a Poller for files in dir matching pattern.
func NewPoller(dir, pattern string, opts ...PollerOption) *Poller {
	p := &Poller{
		dir:     dir,
		pattern: pattern,
		offsets: make(map[string]int64),
		log:     discardLogger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Poll returns the new lines of every matching file, files in lexical order.
//
// Files that cannot be opened or read this cycle yield nothing and are
// retried on the next poll. Only a malformed glob pattern is an error.
func (p *Poller) Poll() ([]Batch, error) {
	paths, err := logfinder.FindLogFiles(p.dir, p.pattern)
	if err != nil {
		return nil, err
	}

	var batches []Batch
	for _, path := range paths {
		if lines := p.readNew(path); len(lines) > 0 {
			batches = append(batches, Batch{Path: path, Lines: lines})
		}
	}
	return batches, nil
}

// SkipExisting moves the offset of every currently matching file to its
// end, so only content appended afterwards is polled.
func (p *Poller) SkipExisting() error {
	paths, err := logfinder.FindLogFiles(p.dir, p.pattern)
	if err != nil {
		return err
	}
	for _, path := range paths {
		f, info, err := safefile.OpenRegular(path)
		if err != nil {
			continue
		}
		f.Close()
		p.offsets[path] = info.Size()
	}
	return nil
}

// Offset returns the stored offset for path.
func (p *Poller) Offset(path string) (int64, bool) {
	off, ok := p.offsets[path]
	return off, ok
}

func (p *Poller) readNew(path string) []string {
	off, seen := p.offsets[path]
	if !seen {
		p.offsets[path] = 0
		p.log.Debug("new log file", "path", path)
	}

	data, size, err := safefile.ReadFrom(path, off)
	if err != nil {
		p.log.Debug("skipping log file this cycle", "path", path, "error", err)
		return nil
	}

	// A shorter file was truncated or replaced: start over.
	if size < off {
		p.log.Debug("log file truncated", "path", path, "offset", off, "size", size)
		p.offsets[path] = 0
		if data, _, err = safefile.ReadFrom(path, 0); err != nil {
			p.log.Debug("skipping log file this cycle", "path", path, "error", err)
			return nil
		}
		off = 0
	}

	// Leave a trailing partial line for the next poll.
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil
	}
	data = data[:end+1]
	p.offsets[path] = off + int64(len(data))

	return splitLines(data)
}

func splitLines(data []byte) []string {
	var lines []string
	for _, raw := range strings.Split(string(data), "\n") {
		if line := CleanLine(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// CleanLine trims surrounding whitespace (including the CR of CRLF logs)
// and replaces invalid UTF-8.
func CleanLine(s string) string {
	return strings.ToValidUTF8(strings.TrimSpace(s), "\uFFFD")
}
