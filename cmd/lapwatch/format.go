package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lapwatch/lapwatch-go/internal/laptime"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

// validFormats lists all valid outcome output formats.
var validFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// OutputOutcome writes an outcome in the specified format to the writer.
func OutputOutcome(format string, o lapwatch.Outcome, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(o, out)
	case "pretty":
		return OutputPretty(o, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// outcomeRecord is the JSON Lines form of an outcome.
type outcomeRecord struct {
	lapwatch.Outcome
	Lap   string `json:"lap"`
	Error string `json:"error,omitempty"`
}

// OutputJSON writes an outcome as JSON Lines format.
func OutputJSON(o lapwatch.Outcome, out io.Writer) error {
	rec := outcomeRecord{Outcome: o, Lap: laptime.Format(o.LapMs)}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an outcome as a single status line.
func OutputPretty(o lapwatch.Outcome, out io.Writer) error {
	lap := laptime.Format(o.LapMs)

	var line string
	switch o.Kind {
	case lapwatch.OutcomeStored:
		line = fmt.Sprintf("[LAP] %s [%s] %s @ %s", o.Player, o.Car, lap, o.Track)
	case lapwatch.OutcomeFlushed:
		line = fmt.Sprintf("[PENDING FLUSH] %s [%s] %s @ %s", o.Player, o.Car, lap, o.Track)
	case lapwatch.OutcomeQueued:
		line = fmt.Sprintf("[QUEUED] %s %s @ %s (waiting car)", o.Player, lap, o.Track)
	case lapwatch.OutcomeDiscarded:
		line = fmt.Sprintf("[LAP IGNORED - CUTS %d] %s %s @ %s", o.Cuts, o.Player, lap, o.Track)
	default:
		line = fmt.Sprintf("[%s] %s %s @ %s", o.Kind, o.Player, lap, o.Track)
	}
	if o.Err != nil {
		line += fmt.Sprintf(" (not stored: %v)", o.Err)
	}

	_, err := fmt.Fprintln(out, line)
	return err
}
