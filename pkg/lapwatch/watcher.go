package lapwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lapwatch/lapwatch-go/internal/logfinder"
	"github.com/lapwatch/lapwatch-go/internal/tailer"
)

// watcherErrBuffer is the buffer size for the error channel.
// A small buffer prevents error loss during brief moments when the consumer
// is busy processing outcomes, while keeping memory usage minimal.
const watcherErrBuffer = 16

// Watcher tails server log files and reconciles their lines into laps.
type Watcher struct {
	cfg    watchConfig // internal configuration (immutable after creation)
	logDir string
	log    *slog.Logger
	rec    *Reconciler

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc // cancel func to stop the goroutine
	doneCh   chan struct{}      // signals when goroutine has exited
	watching bool               // true if Watch() has been called
}

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Watch starts watching and returns channels.
// Starts internal goroutines here.
// When ctx is cancelled, the iteration in progress completes, then both
// channels are closed.
// Watch can only be called once per Watcher instance.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch() has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan Outcome, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	outCh := make(chan Outcome)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, outCh, errCh)

	return outCh, errCh, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

// Reconciler returns the reconciler owned by the watch goroutine.
// Its state must only be inspected after the output channels have closed.
func (w *Watcher) Reconciler() *Reconciler {
	return w.rec
}

func (w *Watcher) run(ctx context.Context, outCh chan<- Outcome, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(outCh)
	defer close(errCh)

	if w.cfg.followFile != "" {
		w.runFollow(ctx, outCh, errCh)
		return
	}
	w.runPoll(ctx, outCh, errCh)
}

func (w *Watcher) runPoll(ctx context.Context, outCh chan<- Outcome, errCh chan<- error) {
	poller := tailer.NewPoller(w.logDir, w.cfg.filePattern, tailer.WithLogger(w.log))
	if !w.cfg.fromStart {
		if err := poller.SkipExisting(); err != nil {
			sendError(ctx, errCh, &WatchError{Op: WatchOpPoll, Path: w.logDir, Err: err})
			return
		}
	}
	w.log.Debug("polling log directory", "dir", w.logDir, "pattern", w.cfg.filePattern, "interval", w.cfg.pollInterval)

	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		w.pollOnce(ctx, poller, outCh, errCh)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context, poller *tailer.Poller, outCh chan<- Outcome, errCh chan<- error) {
	batches, err := poller.Poll()
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpPoll, Path: w.logDir, Err: err})
		return
	}
	for _, b := range batches {
		w.log.Debug("new lines", "path", b.Path, "count", len(b.Lines))
		for _, line := range b.Lines {
			w.processLine(ctx, b.Path, line, outCh, errCh)
		}
	}
}

func (w *Watcher) runFollow(ctx context.Context, outCh chan<- Outcome, errCh chan<- error) {
	path := w.cfg.followFile
	f, err := tailer.Follow(ctx, path, tailer.FollowConfig{
		FromStart: w.cfg.fromStart,
		Poll:      true,
		Logger:    w.log,
	})
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFollow, Path: path, Err: err})
		return
	}
	defer func() {
		if err := f.Stop(); err != nil {
			w.log.Debug("stopping follower", "path", path, "error", err)
		}
	}()
	w.log.Debug("following log file", "path", path, "from_start", w.cfg.fromStart)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-f.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, path, line, outCh, errCh)
		case err, ok := <-f.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpFollow, Path: path, Err: err})
		}
	}
}

// processLine applies one line. Storage writes run to completion even when
// ctx is cancelled; only the delivery of outcomes stops.
func (w *Watcher) processLine(ctx context.Context, path, line string, outCh chan<- Outcome, errCh chan<- error) {
	res := w.rec.Apply(context.WithoutCancel(ctx), line)

	for _, o := range res.Outcomes {
		select {
		case outCh <- o:
		case <-ctx.Done():
			return
		}
	}
	if res.Err != nil {
		sendError(ctx, errCh, &LineError{Path: path, Line: line, Err: res.Err})
	}
}

// sendError sends an error to the error channel.
// With a buffered channel, errors are only dropped if the buffer is full.
// The context case ensures we don't block during shutdown.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
		// Drop error only if buffer is full (rare with buffer size 16)
	}
}

// WatchWithOptions creates a watcher using functional options and starts watching.
//
// Note: This function does not return the underlying Watcher, so callers cannot
// call Close() to perform synchronous shutdown. The watcher will stop when the
// context is cancelled. For more control over shutdown, use NewWatcherWithOptions
// and Watcher.Watch() directly.
func WatchWithOptions(ctx context.Context, store Store, opts ...WatchOption) (<-chan Outcome, <-chan error, error) {
	w, err := NewWatcherWithOptions(store, opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// NewWatcherWithOptions creates a watcher recording laps to store.
// Validates options and, unless a single file is followed, resolves the
// log directory.
// Does NOT start goroutines (cheap to call).
//
// Example:
//
//	watcher, err := lapwatch.NewWatcherWithOptions(db,
//	    lapwatch.WithLogDir("/srv/acserver/logs/session"),
//	    lapwatch.WithPollInterval(500*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outcomes, errs, err := watcher.Watch(ctx)
func NewWatcherWithOptions(store Store, opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	var logDir string
	if cfg.followFile == "" {
		dir, err := logfinder.FindLogDir(cfg.logDir)
		if err != nil {
			return nil, fmt.Errorf("finding log directory: %w", err)
		}
		logDir = dir
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Watcher{
		cfg:    *cfg,
		logDir: logDir,
		log:    log,
		rec:    NewReconciler(store, WithReconcilerLogger(log)),
	}, nil
}
