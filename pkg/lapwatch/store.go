package lapwatch

import "context"

// Lap is a fully resolved lap ready to be stored.
type Lap struct {
	Player string `json:"player"`
	Car    string `json:"car"`
	Track  string `json:"track"`
	LapMs  int64  `json:"lap_ms"`
}

// Store persists resolved laps. Implementations resolve the player, car and
// track names to ids (creating them as needed) and insert the lap time, in
// a single transaction.
type Store interface {
	RecordLap(ctx context.Context, lap Lap) error
}

// StoreFunc is an adapter to allow ordinary functions to be used as Stores.
type StoreFunc func(ctx context.Context, lap Lap) error

// RecordLap implements the Store interface.
func (f StoreFunc) RecordLap(ctx context.Context, lap Lap) error {
	return f(ctx, lap)
}

// DiscardStore accepts and drops every lap.
var DiscardStore Store = StoreFunc(func(context.Context, Lap) error { return nil })
