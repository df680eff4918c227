// Package trackid resolves the many spellings of a track found in server logs
// into a single canonical "track" or "track-layout" key.
package trackid

import (
	"strings"
)

// Unknown is the key used when no candidate resolves.
const Unknown = "unknown"

// LayoutSeparator joins a track and its layout in a canonical key.
const LayoutSeparator = "-"

// noiseSegments are path segments that never name a track or layout.
var noiseSegments = map[string]struct{}{
	"":        {},
	".":       {},
	"..":      {},
	"csp":     {},
	"content": {},
	"tracks":  {},
	"data":    {},
	"cfg":     {},
	"0":       {},
}

// ExtractToken extracts a "track" or "track-layout" token from a raw string
// such as a content path, a URL-encoded query value or a JSON field value.
// It returns the empty string when nothing meaningful remains.
//
// The last two meaningful segments are combined as "<track>-<layout>", unless
// the last one contains a dot, in which case it is a file name and only the
// track is returned.
func ExtractToken(raw string) string {
	if raw == "" {
		return ""
	}
	raw = Unescape(raw)
	raw = strings.ReplaceAll(raw, `\`, "/")

	var parts []string
	for _, p := range strings.Split(raw, "/") {
		p = strings.TrimSpace(p)
		if _, noise := noiseSegments[strings.ToLower(p)]; noise {
			continue
		}
		parts = append(parts, p)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	track := parts[len(parts)-2]
	layout := parts[len(parts)-1]
	if strings.Contains(layout, ".") {
		return track
	}
	return track + LayoutSeparator + layout
}

// HasLayout reports whether key is qualified with a layout.
func HasLayout(key string) bool {
	return strings.Contains(key, LayoutSeparator)
}

// Normalize combines a track candidate and a config (layout) candidate into
// a canonical key. Layout-qualified values win, track first. Two bare values
// with the same base resolve to the track value; two bare values with
// different bases are merged as "<track>-<config>". A single resolved value
// is returned as is, and Unknown when neither resolves.
func Normalize(trackCandidate, configCandidate string) string {
	t1 := ExtractToken(trackCandidate)
	t2 := ExtractToken(configCandidate)

	if HasLayout(t1) {
		return t1
	}
	if HasLayout(t2) {
		return t2
	}
	if t1 != "" && t2 != "" && t1 != t2 {
		if base(t1) == base(t2) {
			return t1
		}
		return t1 + LayoutSeparator + t2
	}
	if t1 != "" {
		return t1
	}
	if t2 != "" {
		return t2
	}
	return Unknown
}

func base(key string) string {
	b, _, _ := strings.Cut(key, LayoutSeparator)
	return b
}

// Unescape decodes every valid %XX escape in s and keeps malformed ones
// as written. Decoded bytes that are not valid UTF-8 become U+FFFD.
// A '+' is not a space.
func Unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			buf = append(buf, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
			continue
		}
		buf = append(buf, s[i])
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}
