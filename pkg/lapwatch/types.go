package lapwatch

import (
	"github.com/lapwatch/lapwatch-go/internal/parser"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch/event"
)

// Event is a single classification produced from a log line.
type Event = event.Event

// EventType identifies the kind of a classified log line.
type EventType = event.Type

// Event types.
const (
	EventTrackSet       = event.TrackSet
	EventConfigSet      = event.ConfigSet
	EventCarRequested   = event.CarRequested
	EventDriverAccepted = event.DriverAccepted
	EventCutsReport     = event.CutsReport
	EventLapReport      = event.LapReport
)

// ParseLine classifies a single server log line without applying it.
//
// Return values:
//   - (events, nil): the events found on the line, possibly none
//   - (events, error): the lap time on a lap line is malformed; track
//     events found earlier on the same line are still returned
func ParseLine(line string) ([]Event, error) {
	return parser.Parse(line)
}
