package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lapwatch/lapwatch-go/internal/store"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

var watchSettings settings

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch server logs and record laps",
	Long: `Watch the server session log directory and record every clean lap.

All files matching --pattern are polled every --interval; new files are
picked up as the server creates them. One status line is written per lap
outcome.

Examples:
  # Watch the auto-detected log directory
  lapwatch watch

  # Watch a specific directory, only lines written from now on
  lapwatch watch --log-dir /srv/acserver/logs/session --from-start=false

  # Follow only the newest log file across rotation
  lapwatch watch --follow-latest

  # JSON Lines output for further processing
  lapwatch watch --format jsonl | jq 'select(.kind == "stored")'`,
	RunE: runWatch,
}

func init() {
	fs := watchCmd.Flags()
	watchSettings.addLogFlags(fs)
	watchSettings.addDBFlag(fs, store.DefaultPath)
	watchSettings.addFormatFlag(fs)
	fs.StringVar(&watchSettings.followFile, "follow", "",
		"Follow a single log file instead of polling the directory")
	fs.BoolVar(&watchSettings.followLatest, "follow-latest", false,
		"Follow the newest log file in the directory")
	fs.DurationVar(&watchSettings.pollInterval, "interval", lapwatch.DefaultPollInterval,
		"Directory poll interval")
	fs.BoolVar(&watchSettings.fromStart, "from-start", true,
		"Apply content already present in the log files")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cf, err := loadConfig()
	if err != nil {
		return err
	}
	s := &watchSettings
	s.applyConfig(cf, cmd.Flags())
	if err := s.validate(); err != nil {
		return err
	}
	if s.dbPath == "" {
		s.dbPath = store.DefaultPath
	}

	logger := newLogger(cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := s.watchOptions(logger)
	if err != nil {
		return err
	}

	db, closeStore, err := s.openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	watcher, err := lapwatch.NewWatcherWithOptions(db, opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	outcomes, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("watching for laps", "db", s.dbPath)

	out := cmd.OutOrStdout()
	for outcomes != nil || errs != nil {
		select {
		case o, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			if err := OutputOutcome(s.format, o, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch error", "error", err)
		}
	}

	logger.Info("shutting down")
	return nil
}
