package lapwatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lapwatch/lapwatch-go/internal/parser"
	"github.com/lapwatch/lapwatch-go/internal/queue"
	"github.com/lapwatch/lapwatch-go/internal/trackid"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch/event"
)

// UnknownCar is assigned to drivers accepted while no car request is waiting.
const UnknownCar = "unknown"

// UnknownTrack is the track key used while no track candidate resolves.
const UnknownTrack = trackid.Unknown

// Status is the outcome of applying one line.
type Status int

const (
	// StatusIgnored means the line changed nothing.
	StatusIgnored Status = iota
	// StatusApplied means the line updated the session state.
	StatusApplied
	// StatusFailed means the line, or a storage write it caused, failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIgnored:
		return "ignored"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// OutcomeKind tags what happened to a lap.
type OutcomeKind string

const (
	// OutcomeStored: confirmed and written to the store.
	OutcomeStored OutcomeKind = "stored"
	// OutcomeQueued: confirmed, waiting for the driver's car to be known.
	OutcomeQueued OutcomeKind = "queued"
	// OutcomeDiscarded: disqualified by cuts, not stored.
	OutcomeDiscarded OutcomeKind = "discarded"
	// OutcomeFlushed: written from the pending queue once the car was known.
	OutcomeFlushed OutcomeKind = "flushed"
)

// Outcome describes one lap outcome produced by a line.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Player string      `json:"player"`
	Car    string      `json:"car,omitempty"`
	Track  string      `json:"track"`
	LapMs  int64       `json:"lap_ms"`
	Cuts   int         `json:"cuts,omitempty"`

	// Err is a *StorageError when writing the lap failed.
	Err error `json:"-"`
}

// Result is the outcome of Reconciler.Apply for a single line.
type Result struct {
	Status   Status
	Events   []event.Event
	Outcomes []Outcome
	Err      error
}

// LapCandidate is the most recent lap report awaiting its cuts report.
type LapCandidate struct {
	Player string
	LapMs  int64
}

// PendingLap is a confirmed lap waiting for its driver's car.
type PendingLap struct {
	Player string
	LapMs  int64
	Track  string
}

// Reconciler correlates classified log lines into resolved laps.
//
// It holds the per-run session state: the unconfirmed lap candidate, the
// FIFO of car requests waiting for a driver, the driver to car assignments,
// the laps waiting for a car and the observed track candidates.
//
// A Reconciler is not safe for concurrent use.
type Reconciler struct {
	store Store
	log   *slog.Logger

	lapCandidate *LapCandidate
	pendingCars  queue.Queue[string]
	playerCars   map[string]string
	pendingLaps  queue.Queue[PendingLap]

	observedTrack  string
	observedConfig string
}

// NewReconciler creates a Reconciler writing resolved laps to store.
// A nil store drops every lap.
func NewReconciler(store Store, opts ...ReconcilerOption) *Reconciler {
	cfg := applyReconcilerOptions(opts)
	if store == nil {
		store = DiscardStore
	}
	log := cfg.logger
	if log == nil {
		log = discardLogger
	}
	return &Reconciler{
		store:      store,
		log:        log,
		playerCars: make(map[string]string),
	}
}

// Apply classifies line and applies it to the session state.
//
// A line that fails to classify leaves the state unchanged. Storage failures
// do not roll the state back; the affected outcome carries the error.
func (r *Reconciler) Apply(ctx context.Context, line string) Result {
	events, err := parser.Parse(line)
	if err != nil {
		return Result{Status: StatusFailed, Events: events, Err: err}
	}

	res := Result{Events: events}
	for _, ev := range events {
		if r.applyEvent(ctx, ev, &res) {
			res.Status = StatusApplied
		}
	}

	var errs []error
	for _, o := range res.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	if len(errs) > 0 {
		res.Status = StatusFailed
		res.Err = errors.Join(errs...)
	}
	return res
}

// applyEvent reports whether ev changed the session state.
func (r *Reconciler) applyEvent(ctx context.Context, ev event.Event, res *Result) bool {
	switch ev.Type {
	case event.TrackSet:
		r.observedTrack = ev.Value
		if ev.Resolved {
			r.observedConfig = ""
		}
		r.log.Debug("track candidate", "value", ev.Value, "source", ev.Source, "resolved", ev.Resolved)
		return true

	case event.ConfigSet:
		r.observedConfig = ev.Value
		r.log.Debug("config candidate", "value", ev.Value, "source", ev.Source)
		return true

	case event.CarRequested:
		r.pendingCars.Push(ev.Car)
		r.log.Debug("car requested", "car", ev.Car, "waiting", r.pendingCars.Len())
		return true

	case event.DriverAccepted:
		r.acceptDriver(ctx, ev.Player, res)
		return true

	case event.CutsReport:
		return r.confirmLap(ctx, ev.Cuts, res)

	case event.LapReport:
		r.lapCandidate = &LapCandidate{Player: ev.Player, LapMs: ev.LapMs}
		return true
	}
	return false
}

func (r *Reconciler) acceptDriver(ctx context.Context, player string, res *Result) {
	car, ok := r.pendingCars.Pop()
	if !ok {
		car = UnknownCar
	}
	r.playerCars[player] = car
	r.log.Debug("driver accepted", "player", player, "car", car)

	for _, pl := range r.pendingLaps.Extract(func(p PendingLap) bool { return p.Player == player }) {
		lap := Lap{Player: player, Car: car, Track: pl.Track, LapMs: pl.LapMs}
		res.Outcomes = append(res.Outcomes, r.record(ctx, OutcomeFlushed, lap))
	}
}

// confirmLap settles the lap candidate with its cut count. It reports false
// when no candidate is waiting.
func (r *Reconciler) confirmLap(ctx context.Context, cuts int, res *Result) bool {
	cand := r.lapCandidate
	if cand == nil {
		return false
	}
	r.lapCandidate = nil

	// The track is stamped now, not at lap time: it may have changed since.
	track := r.Track()

	if cuts > 0 {
		r.log.Debug("lap discarded", "player", cand.Player, "lap_ms", cand.LapMs, "cuts", cuts)
		res.Outcomes = append(res.Outcomes, Outcome{
			Kind:   OutcomeDiscarded,
			Player: cand.Player,
			Car:    r.playerCars[cand.Player],
			Track:  track,
			LapMs:  cand.LapMs,
			Cuts:   cuts,
		})
		return true
	}

	car, ok := r.playerCars[cand.Player]
	if !ok {
		r.pendingLaps.Push(PendingLap{Player: cand.Player, LapMs: cand.LapMs, Track: track})
		r.log.Debug("lap queued", "player", cand.Player, "lap_ms", cand.LapMs, "pending", r.pendingLaps.Len())
		res.Outcomes = append(res.Outcomes, Outcome{
			Kind:   OutcomeQueued,
			Player: cand.Player,
			Track:  track,
			LapMs:  cand.LapMs,
		})
		return true
	}

	lap := Lap{Player: cand.Player, Car: car, Track: track, LapMs: cand.LapMs}
	res.Outcomes = append(res.Outcomes, r.record(ctx, OutcomeStored, lap))
	return true
}

func (r *Reconciler) record(ctx context.Context, kind OutcomeKind, lap Lap) Outcome {
	o := Outcome{
		Kind:   kind,
		Player: lap.Player,
		Car:    lap.Car,
		Track:  lap.Track,
		LapMs:  lap.LapMs,
	}
	if err := r.store.RecordLap(ctx, lap); err != nil {
		o.Err = &StorageError{Op: "record lap", Lap: lap, Err: err}
		r.log.Warn("lap lost", "player", lap.Player, "track", lap.Track, "error", err)
		return o
	}
	r.log.Debug("lap recorded", "kind", kind, "player", lap.Player, "car", lap.Car, "track", lap.Track, "lap_ms", lap.LapMs)
	return o
}

// Track returns the canonical track key for the current candidates.
func (r *Reconciler) Track() string {
	return trackid.Normalize(r.observedTrack, r.observedConfig)
}

// CarFor returns the car assigned to player.
func (r *Reconciler) CarFor(player string) (string, bool) {
	car, ok := r.playerCars[player]
	return car, ok
}

// LapCandidate returns the lap waiting for its cuts report, if any.
func (r *Reconciler) LapCandidate() (LapCandidate, bool) {
	if r.lapCandidate == nil {
		return LapCandidate{}, false
	}
	return *r.lapCandidate, true
}

// PendingLaps returns the laps waiting for a car, oldest first.
func (r *Reconciler) PendingLaps() []PendingLap {
	return r.pendingLaps.Items()
}

// PendingCars returns the car requests waiting for a driver, oldest first.
func (r *Reconciler) PendingCars() []string {
	return r.pendingCars.Items()
}
