package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/lapwatch/lapwatch-go/internal/config"
	"github.com/lapwatch/lapwatch-go/internal/logfinder"
	"github.com/lapwatch/lapwatch-go/internal/store"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

// settings holds the values shared by the commands. Flags fill it first;
// configuration file values apply to flags left unset.
type settings struct {
	logDir       string
	pattern      string
	followFile   string
	followLatest bool
	dbPath       string
	pollInterval time.Duration
	format       string
	fromStart    bool
	trackNames   string
}

func (s *settings) addLogFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&s.logDir, "log-dir", "d", "",
		"Server session log directory (auto-detected if not specified)")
	fs.StringVarP(&s.pattern, "pattern", "p", logfinder.DefaultPattern,
		"Glob matched against log file names")
}

func (s *settings) addDBFlag(fs *pflag.FlagSet, def string) {
	fs.StringVar(&s.dbPath, "db", def, "SQLite database path")
}

func (s *settings) addFormatFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&s.format, "format", "f", "pretty", "Output format: pretty, jsonl")
}

// applyConfig copies configuration values into settings whose flag was
// not given on the command line.
func (s *settings) applyConfig(cf *config.File, fs *pflag.FlagSet) {
	str := func(name string, dst *string, v string) {
		if v != "" && fs.Lookup(name) != nil && !fs.Changed(name) {
			*dst = v
		}
	}
	str("log-dir", &s.logDir, cf.LogDir)
	str("pattern", &s.pattern, cf.FilePattern)
	str("follow", &s.followFile, cf.FollowFile)
	str("db", &s.dbPath, cf.DBPath)
	str("format", &s.format, cf.Format)
	str("track-names", &s.trackNames, cf.TrackNames)

	if cf.PollInterval > 0 && fs.Lookup("interval") != nil && !fs.Changed("interval") {
		s.pollInterval = cf.PollInterval
	}
	if cf.FromStart != nil && fs.Lookup("from-start") != nil && !fs.Changed("from-start") {
		s.fromStart = *cf.FromStart
	}
}

func (s *settings) validate() error {
	if !validFormats[s.format] {
		return fmt.Errorf("unknown format: %s", s.format)
	}
	if s.followFile != "" && s.followLatest {
		return fmt.Errorf("--follow and --follow-latest are mutually exclusive")
	}
	return nil
}

// watchOptions translates the settings into watcher options. With
// --follow-latest the newest log file is resolved here.
func (s *settings) watchOptions(logger *slog.Logger) ([]lapwatch.WatchOption, error) {
	opts := []lapwatch.WatchOption{
		lapwatch.WithFilePattern(s.pattern),
		lapwatch.WithPollInterval(s.pollInterval),
		lapwatch.WithReplayFromStart(s.fromStart),
		lapwatch.WithLogger(logger),
	}

	follow := s.followFile
	if s.followLatest {
		dir, err := logfinder.FindLogDir(s.logDir)
		if err != nil {
			return nil, err
		}
		if follow, err = logfinder.FindLatestLogFile(dir, s.pattern); err != nil {
			return nil, err
		}
	}

	if follow != "" {
		return append(opts, lapwatch.WithFollowFile(follow)), nil
	}
	return append(opts, lapwatch.WithLogDir(s.logDir)), nil
}

// openStore opens the database, or returns a store that drops every lap
// when no path is set.
func (s *settings) openStore(logger *slog.Logger) (lapwatch.Store, func() error, error) {
	if s.dbPath == "" {
		return lapwatch.DiscardStore, func() error { return nil }, nil
	}
	db, err := store.Open(s.dbPath, store.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return db, db.Close, nil
}
