package tailer

import (
	"context"
	"io"
	"log/slog"

	"github.com/nxadm/tail"
)

// followerErrBuffer is the buffer size for the follower error channel.
const followerErrBuffer = 16

// FollowConfig configures a Follower.
type FollowConfig struct {
	// FromStart reads the file from the beginning instead of its current end.
	FromStart bool
	// Poll uses stat polling instead of filesystem notifications.
	Poll bool
	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// Follower follows a single log file across rotation (rename and re-create)
// and truncation, delivering cleaned, non-empty lines.
type Follower struct {
	path   string
	t      *tail.Tail
	log    *slog.Logger
	lines  chan string
	errs   chan error
	doneCh chan struct{}
}

// Follow starts following path. The file need not exist yet.
// Lines are delivered until ctx is cancelled or Stop is called.
func Follow(ctx context.Context, path string, cfg FollowConfig) (*Follower, error) {
	tcfg := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      cfg.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !cfg.FromStart {
		tcfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tcfg)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = discardLogger
	}

	f := &Follower{
		path:   path,
		t:      t,
		log:    log,
		lines:  make(chan string),
		errs:   make(chan error, followerErrBuffer),
		doneCh: make(chan struct{}),
	}
	go f.run(ctx)
	return f, nil
}

// Lines returns the channel of followed lines. It is closed when the
// follower stops.
func (f *Follower) Lines() <-chan string {
	return f.lines
}

// Errors returns the channel of read errors. It is closed when the
// follower stops.
func (f *Follower) Errors() <-chan error {
	return f.errs
}

// Stop stops following and waits for the delivery goroutine to exit.
func (f *Follower) Stop() error {
	err := f.t.Stop()
	<-f.doneCh
	f.t.Cleanup()
	return err
}

func (f *Follower) run(ctx context.Context) {
	defer close(f.doneCh)
	defer close(f.errs)
	defer close(f.lines)

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.t.Dying():
			return
		case line, ok := <-f.t.Lines:
			if !ok {
				if err := f.t.Err(); err != nil {
					f.sendError(err)
				}
				return
			}
			if line.Err != nil {
				f.sendError(line.Err)
				continue
			}
			text := CleanLine(line.Text)
			if text == "" {
				continue
			}
			select {
			case f.lines <- text:
			case <-ctx.Done():
				return
			case <-f.t.Dying():
				return
			}
		}
	}
}

func (f *Follower) sendError(err error) {
	f.log.Debug("follow error", "path", f.path, "error", err)
	select {
	case f.errs <- err:
	default:
		// Drop error only if buffer is full
	}
}
