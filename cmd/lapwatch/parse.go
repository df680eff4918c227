package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lapwatch/lapwatch-go/internal/logfinder"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

var parseSettings settings

var parseCmd = &cobra.Command{
	Use:   "parse [file...]",
	Short: "Replay finished log files",
	Long: `Replay finished log files through the lap reconciler, in order, as
one session history.

Without arguments every log file in the log directory is replayed.
Laps are only stored when --db is given; otherwise the outcomes are
printed and discarded.

Examples:
  # Dry run over all logs of the auto-detected directory
  lapwatch parse

  # Import two files into a database
  lapwatch parse --db laptimes.db output_2024_01_15.log output_2024_01_16.log`,
	RunE: runParse,
}

func init() {
	fs := parseCmd.Flags()
	parseSettings.addLogFlags(fs)
	parseSettings.addDBFlag(fs, "")
	parseSettings.addFormatFlag(fs)

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cf, err := loadConfig()
	if err != nil {
		return err
	}
	s := &parseSettings
	s.applyConfig(cf, cmd.Flags())
	if err := s.validate(); err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr())

	files := args
	if len(files) == 0 {
		dir, err := logfinder.FindLogDir(s.logDir)
		if err != nil {
			return err
		}
		if files, err = logfinder.FindLogFiles(dir, s.pattern); err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("%w in %s", logfinder.ErrNoLogFiles, dir)
		}
	}

	db, closeStore, err := s.openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return replayFiles(ctx, files, db, s.format, cmd.OutOrStdout(), logger)
}

// replayFiles applies files in order through one reconciler and writes
// every outcome. Skipped lines are logged, not fatal.
func replayFiles(ctx context.Context, files []string, db lapwatch.Store, format string, out io.Writer, logger *slog.Logger) error {
	rec := lapwatch.NewReconciler(db, lapwatch.WithReconcilerLogger(logger))

	var stored, discarded, failed int
	var outErr error
	for _, path := range files {
		err := lapwatch.ReplayFile(ctx, rec, path, func(line string, res lapwatch.Result) {
			if res.Err != nil {
				logger.Warn("line skipped", "path", path, "line", line, "error", res.Err)
			}
			for _, o := range res.Outcomes {
				switch {
				case o.Err != nil:
					failed++
				case o.Kind == lapwatch.OutcomeStored, o.Kind == lapwatch.OutcomeFlushed:
					stored++
				case o.Kind == lapwatch.OutcomeDiscarded:
					discarded++
				}
				if outErr == nil {
					outErr = OutputOutcome(format, o, out)
				}
			}
		})
		if err != nil {
			return err
		}
		if outErr != nil {
			return fmt.Errorf("output error: %w", outErr)
		}
	}

	logger.Info("replay complete",
		"files", len(files),
		"stored", stored,
		"discarded", discarded,
		"failed", failed,
		"pending", len(rec.PendingLaps()),
	)
	return nil
}
