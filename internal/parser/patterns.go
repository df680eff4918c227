package parser

import "regexp"

// Compiled regex patterns for line classification.
var (
	// Matches: "TRACK=ks_nordschleife", "track=csp/0/../ks_nordschleife"
	// Captures: (1) value
	trackLinePattern = regexp.MustCompile(`(?i)^TRACK=(.+)$`)

	// Matches: "CONFIG=touristenfahrten"
	// Captures: (1) value
	configLinePattern = regexp.MustCompile(`(?i)^CONFIG=(.+)$`)

	// Matches: {"TRACK":"ks_monza", ...}
	// Captures: (1) value
	jsonTrackPattern = regexp.MustCompile(`(?i)"TRACK"\s*:\s*"([^"]+)"`)

	// Matches: {"CONFIG":"gp", ...} (value may be empty)
	// Captures: (1) value
	jsonConfigPattern = regexp.MustCompile(`(?i)"CONFIG"\s*:\s*"([^"]*)"`)

	// Matches: "... content/tracks/ks_monza/data/drs_zones.ini"
	// Captures: (1) remainder after the tracks directory
	contentPathPattern = regexp.MustCompile(`(?i)content[/\\]tracks[/\\](.+)`)

	// Splits the value of a track= query parameter from the rest of the line.
	queryValueTerminator = regexp.MustCompile(`[\s&",']`)

	// Matches: "REQUESTED CAR: ks_ferrari_488_gt3*"
	// Captures: (1) car name without the trailing add-on marker
	requestedCarPattern = regexp.MustCompile(`^REQUESTED CAR:\s*(.+?)(\*)?$`)

	// Matches: "DRIVER ACCEPTED FOR CAR Jane Doe"
	// Captures: (1) player name
	driverAcceptedPattern = regexp.MustCompile(`^DRIVER ACCEPTED FOR CAR\s+(.+)$`)

	// Matches: "... Cuts: 0 ..." anywhere in the line
	// Captures: (1) cut count
	cutsPattern = regexp.MustCompile(`(?i)Cuts:\s*(\d+)`)

	// Matches: "LAP Jane Doe 1:23.456"
	// Captures: (1) player name, (2) lap time
	lapPattern = regexp.MustCompile(`^LAP\s+(.+?)\s+([\d:.]+)$`)
)

// queryTrackKey is searched case-insensitively in arbitrary lines.
const queryTrackKey = "track="

// addOnMarker is appended to car names of add-on content.
const addOnMarker = "*"
