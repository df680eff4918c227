// Package parser classifies dedicated server log lines into typed events.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/lapwatch/lapwatch-go/internal/laptime"
	"github.com/lapwatch/lapwatch-go/internal/trackid"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch/event"
)

// Parse classifies a server log line.
//
// Track and config information is collected first, since several
// conventions may appear on the same line. At most one session event
// (car requested, driver accepted, cuts, lap) follows it.
//
// Returns:
//   - (events, nil): Recognized line, events in application order
//   - (nil, nil): Not a recognized line
//   - (events, error): Malformed lap line; events holds the track
//     information found before the failure
func Parse(line string) ([]event.Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	// Whole-line key=value conventions stop classification.
	if match := trackLinePattern.FindStringSubmatch(line); match != nil {
		return []event.Event{{
			Type:   event.TrackSet,
			Source: event.SourceKeyValue,
			Value:  strings.TrimSpace(match[1]),
		}}, nil
	}
	if match := configLinePattern.FindStringSubmatch(line); match != nil {
		return []event.Event{{
			Type:   event.ConfigSet,
			Source: event.SourceKeyValue,
			Value:  strings.TrimSpace(match[1]),
		}}, nil
	}

	events := parseJSONFields(line)

	// A content path line carries nothing but track information.
	if ev, ok := parseContentPath(line); ok {
		if ev != nil {
			events = append(events, *ev)
		}
		return events, nil
	}

	if ev := parseQueryTrack(line); ev != nil {
		events = append(events, *ev)
	}

	ev, err := parseSessionEvent(line)
	if err != nil {
		return events, err
	}
	if ev != nil {
		events = append(events, *ev)
	}
	return events, nil
}

func parseJSONFields(line string) []event.Event {
	var events []event.Event
	if match := jsonTrackPattern.FindStringSubmatch(line); match != nil {
		events = append(events, event.Event{
			Type:   event.TrackSet,
			Source: event.SourceJSON,
			Value:  strings.TrimSpace(match[1]),
		})
	}
	if match := jsonConfigPattern.FindStringSubmatch(line); match != nil {
		events = append(events, event.Event{
			Type:   event.ConfigSet,
			Source: event.SourceJSON,
			Value:  strings.TrimSpace(match[1]),
		})
	}
	return events
}

// parseContentPath reports ok when the line contains a tracks content path.
// The returned event is nil when the path holds no usable track name.
func parseContentPath(line string) (*event.Event, bool) {
	match := contentPathPattern.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}
	return trackHint(match[1], event.SourceContentPath), true
}

func parseQueryTrack(line string) *event.Event {
	idx := strings.Index(strings.ToLower(line), queryTrackKey)
	if idx < 0 {
		return nil
	}
	after := line[idx+len(queryTrackKey):]
	token := queryValueTerminator.Split(after, 2)[0]
	return trackHint(trackid.Unescape(token), event.SourceQuery)
}

// trackHint turns a raw track-bearing string into a TrackSet event.
// Layout-qualified values are stored resolved; bare values keep the raw
// string so it can later be combined with a config candidate.
func trackHint(raw string, src event.Source) *event.Event {
	resolved := trackid.ExtractToken(raw)
	if resolved == "" {
		return nil
	}
	if trackid.HasLayout(resolved) {
		return &event.Event{Type: event.TrackSet, Source: src, Value: resolved, Resolved: true}
	}
	return &event.Event{Type: event.TrackSet, Source: src, Value: raw}
}

func parseSessionEvent(line string) (*event.Event, error) {
	if match := requestedCarPattern.FindStringSubmatch(line); match != nil {
		car := strings.TrimRight(strings.TrimSpace(match[1]), addOnMarker)
		return &event.Event{Type: event.CarRequested, Car: car}, nil
	}

	if match := driverAcceptedPattern.FindStringSubmatch(line); match != nil {
		player := strings.TrimSpace(match[1])
		if isNoisePlayer(player) {
			return nil, nil
		}
		return &event.Event{Type: event.DriverAccepted, Player: player}, nil
	}

	if match := cutsPattern.FindStringSubmatch(line); match != nil {
		cuts, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("cut count %q: %w", match[1], err)
		}
		return &event.Event{Type: event.CutsReport, Cuts: cuts}, nil
	}

	if match := lapPattern.FindStringSubmatch(line); match != nil {
		ms, err := laptime.Parse(match[2])
		if err != nil {
			return nil, err
		}
		return &event.Event{
			Type:   event.LapReport,
			Player: strings.TrimSpace(match[1]),
			LapMs:  ms,
		}, nil
	}

	return nil, nil
}

// isNoisePlayer reports whether a driver name is empty or purely numeric.
// Such names are car slot indices, not drivers.
func isNoisePlayer(name string) bool {
	if name == "" {
		return true
	}
	for _, r := range name {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
