package trackid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare name", input: "ks_monza", want: "ks_monza"},
		{name: "track and layout", input: "ks_nordschleife/touristenfahrten", want: "ks_nordschleife-touristenfahrten"},
		{name: "csp prefix", input: "csp/0/ks_nordschleife", want: "ks_nordschleife"},
		{name: "csp prefix with dot segments", input: "csp/0/../ks_nordschleife-touristenfahrten", want: "ks_nordschleife-touristenfahrten"},
		{name: "file name dropped", input: "ks_monza/data/surfaces.ini", want: "ks_monza"},
		{name: "layout then file name", input: "ks_silverstone/gp/data/drs_zones.ini", want: "gp"},
		{name: "backslashes", input: `content\tracks\ks_barcelona\layout_gp`, want: "ks_barcelona-layout_gp"},
		{name: "url encoded", input: "csp%2F0%2F..%2Fks_nordschleife%2Ftouristenfahrten", want: "ks_nordschleife-touristenfahrten"},
		{name: "invalid escape kept", input: "ks_%zz", want: "ks_%zz"},
		{name: "valid escapes decoded beside invalid", input: "ks%20monza%zz", want: "ks monza%zz"},
		{name: "noise is case insensitive", input: "Content/Tracks/CSP/ks_vallelunga", want: "ks_vallelunga"},
		{name: "only noise", input: "content/tracks/0/", want: ""},
		{name: "empty", input: "", want: ""},
		{name: "whitespace segments", input: " ks_imola / ", want: "ks_imola"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractToken(tt.input))
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no escapes", input: "ks_monza", want: "ks_monza"},
		{name: "slash", input: "ks_monza%2Fgp", want: "ks_monza/gp"},
		{name: "lower case hex", input: "a%2fb", want: "a/b"},
		{name: "mixed valid and invalid", input: "ks%20monza%zz", want: "ks monza%zz"},
		{name: "truncated escape", input: "ks_monza%2", want: "ks_monza%2"},
		{name: "trailing percent", input: "100%", want: "100%"},
		{name: "plus is literal", input: "a+b", want: "a+b"},
		{name: "utf-8 sequence", input: "n%C3%BCrburgring", want: "n\u00fcrburgring"},
		{name: "invalid utf-8 replaced", input: "ks%FFmonza", want: "ks\uFFFDmonza"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unescape(tt.input))
		})
	}
}

func TestExtractToken_Idempotent(t *testing.T) {
	for _, key := range []string{
		"ks_nordschleife-touristenfahrten",
		"ks_monza",
		"rt_suzuka-suzukagp",
	} {
		once := ExtractToken(key)
		assert.Equal(t, key, once)
		assert.Equal(t, once, ExtractToken(once))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		track  string
		config string
		want   string
	}{
		{name: "track with csp prefix and bare config", track: "csp/0/ks_nordschleife", config: "touristenfahrten", want: "ks_nordschleife-touristenfahrten"},
		{name: "track already has layout", track: "ks_nordschleife-touristenfahrten", config: "endurance", want: "ks_nordschleife-touristenfahrten"},
		{name: "config has layout", track: "ks_monza", config: "ks_monza/junior", want: "ks_monza-junior"},
		{name: "track layout preferred on tie", track: "a/b", config: "c/d", want: "a-b"},
		{name: "same value", track: "ks_monza", config: "ks_monza", want: "ks_monza"},
		{name: "track only", track: "ks_monza", config: "", want: "ks_monza"},
		{name: "config only", track: "", config: "gp", want: "gp"},
		{name: "noise track falls back to config", track: "csp/0", config: "gp", want: "gp"},
		{name: "nothing", track: "", config: "", want: Unknown},
		{name: "content path remainder with file", track: "ks_monza/data/surfaces.ini", config: "gp", want: "ks_monza-gp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.track, tt.config))
		})
	}
}

func TestHasLayout(t *testing.T) {
	assert.True(t, HasLayout("ks_monza-gp"))
	assert.False(t, HasLayout("ks_monza"))
	assert.False(t, HasLayout(""))
}
