package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapwatch/lapwatch-go/internal/config"
)

func TestLoadTrackNames_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track_names.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "ks_nordschleife-touristenfahrten": "Nordschleife Touristenfahrten",
  "ks_monza": "Monza"
}`), 0644))

	names, err := config.LoadTrackNames(path)
	require.NoError(t, err)

	name, ok := names.Lookup("ks_monza")
	assert.True(t, ok)
	assert.Equal(t, "Monza", name)

	_, ok = names.Lookup("ks_imola")
	assert.False(t, ok)
}

func TestParseTrackNames_YAML(t *testing.T) {
	names, err := config.ParseTrackNames([]byte("ks_monza: Monza\n"))
	require.NoError(t, err)
	assert.Equal(t, config.TrackNames{"ks_monza": "Monza"}, names)
}

func TestParseTrackNames_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not a map", "[1, 2]"},
		{"empty name", `{"ks_monza": ""}`},
		{"empty key", `{"": "Monza"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseTrackNames([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseTrackNames_ValidationError(t *testing.T) {
	_, err := config.ParseTrackNames([]byte(`{"ks_monza": ""}`))
	var verr *config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "track_names", verr.Field)
}

func TestLoadTrackNames_Directory(t *testing.T) {
	_, err := config.LoadTrackNames(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "track names file must be a regular file")
}

func TestTrackNames_NilLookup(t *testing.T) {
	var names config.TrackNames
	_, ok := names.Lookup("ks_monza")
	assert.False(t, ok)
}
