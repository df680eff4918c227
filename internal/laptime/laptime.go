// Package laptime converts between lap-time clock strings and milliseconds.
package laptime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedDuration is returned when a lap time cannot be parsed.
var ErrMalformedDuration = errors.New("malformed duration")

// Parse converts a lap time into milliseconds.
//
// Accepted forms:
//   - "M:SS:mmm" or "M:SS.mmm": minutes, seconds, milliseconds
//   - "M:SS": minutes and seconds
//   - "SS.mmm": seconds and milliseconds
//   - "mmm": raw milliseconds
//
// Every field must be a non-empty run of ASCII digits.
func Parse(text string) (int64, error) {
	if text == "" {
		return 0, fmt.Errorf("%w: empty string", ErrMalformedDuration)
	}

	fields := strings.Split(text, ":")
	last := fields[len(fields)-1]
	if sec, ms, ok := strings.Cut(last, "."); ok {
		fields = append(fields[:len(fields)-1], sec, ms)
	}

	values := make([]int64, len(fields))
	for i, f := range fields {
		v, err := parseField(f)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, text)
		}
		values[i] = v
	}

	var scales []int64
	switch {
	case len(values) == 3:
		scales = []int64{60000, 1000, 1}
	case len(values) == 2 && strings.Contains(text, ":"):
		scales = []int64{60000, 1000}
	case len(values) == 2:
		// "SS.mmm"
		scales = []int64{1000, 1}
	case len(values) == 1:
		scales = []int64{1}
	default:
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, text)
	}

	var total int64
	for i, v := range values {
		if v > (math.MaxInt64-total)/scales[i] {
			return 0, fmt.Errorf("%w: %q out of range", ErrMalformedDuration, text)
		}
		total += v * scales[i]
	}
	return total, nil
}

// Format renders milliseconds as "M:SS.mmm". Negative input renders as zero.
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}

func parseField(f string) (int64, error) {
	if f == "" {
		return 0, errors.New("empty field")
	}
	for i := 0; i < len(f); i++ {
		if f[i] < '0' || f[i] > '9' {
			return 0, fmt.Errorf("non-digit %q", f[i])
		}
	}
	return strconv.ParseInt(f, 10, 64)
}
