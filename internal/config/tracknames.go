package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TrackNames maps canonical track keys to display names, for example
// "ks_nordschleife-touristenfahrten" to "Nordschleife Touristenfahrten".
type TrackNames map[string]string

// LoadTrackNames reads a track name map. The file is a flat JSON object
// or its YAML equivalent.
func LoadTrackNames(path string) (TrackNames, error) {
	data, err := readFile(path, "track names")
	if err != nil {
		return nil, err
	}
	return ParseTrackNames(data)
}

// ParseTrackNames parses a track name map from a byte slice.
func ParseTrackNames(data []byte) (TrackNames, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("track names file too large: %d bytes (max %d)", len(data), MaxFileSize)
	}

	var names TrackNames
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse track names: %w", err)
	}
	for key, name := range names {
		if key == "" {
			return nil, &ValidationError{Field: "track_names", Message: "empty track key"}
		}
		if name == "" {
			return nil, &ValidationError{Field: "track_names", Message: fmt.Sprintf("empty name for %q", key)}
		}
	}
	if names == nil {
		return nil, errors.New("track names file is empty")
	}
	return names, nil
}

// Lookup returns the display name of key and whether one is configured.
// A nil map has no names.
func (n TrackNames) Lookup(key string) (string, bool) {
	name, ok := n[key]
	return name, ok
}
