package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lapwatch/lapwatch-go/internal/config"
	"github.com/lapwatch/lapwatch-go/internal/laptime"
	"github.com/lapwatch/lapwatch-go/internal/store"
)

var (
	lapsSettings    settings
	lapsLimit       int
	lapsTracks      bool
	lapsJSON        bool
	lapsPlayer      string
	lapsLeaderboard bool
)

var lapsCmd = &cobra.Command{
	Use:   "laps [track]",
	Short: "Show recorded best laps",
	Long: `Show the best laps recorded in the database.

With a track key, the fastest lap of every driver and car on that track
is listed, fastest first. Without one, the record of every track is shown.
--player lists every lap of one driver; --leaderboard ranks drivers by
their fastest lap on any track.

Track keys are shown as title-cased names unless --track-names maps them
to display names (a JSON object of key to name).

Examples:
  # Track records
  lapwatch laps

  # Leaderboard of one layout
  lapwatch laps ks_nordschleife-touristenfahrten --limit 20

  # Known track keys
  lapwatch laps --tracks

  # All laps of one driver, with display names
  lapwatch laps --player Alice --track-names track_names.json

  # Overall driver ranking
  lapwatch laps --leaderboard -n 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLaps,
}

func init() {
	fs := lapsCmd.Flags()
	lapsSettings.addDBFlag(fs, store.DefaultPath)
	fs.IntVarP(&lapsLimit, "limit", "n", 100, "Maximum number of rows")
	fs.BoolVar(&lapsTracks, "tracks", false, "List known track keys")
	fs.BoolVar(&lapsJSON, "json", false, "Output JSON instead of a table")
	fs.StringVar(&lapsPlayer, "player", "", "List the laps of one driver")
	fs.BoolVar(&lapsLeaderboard, "leaderboard", false, "Rank drivers by their fastest lap")
	fs.StringVar(&lapsSettings.trackNames, "track-names", "", "JSON file mapping track keys to display names")

	rootCmd.AddCommand(lapsCmd)
}

func runLaps(cmd *cobra.Command, args []string) error {
	cf, err := loadConfig()
	if err != nil {
		return err
	}
	lapsSettings.applyConfig(cf, cmd.Flags())
	if lapsLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", lapsLimit)
	}
	if err := checkLapsView(len(args) == 1); err != nil {
		return err
	}

	var names config.TrackNames
	if lapsSettings.trackNames != "" {
		if names, err = config.LoadTrackNames(lapsSettings.trackNames); err != nil {
			return err
		}
	}

	db, err := store.Open(lapsSettings.dbPath, store.WithLogger(newLogger(cmd.ErrOrStderr())))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case lapsTracks:
		tracks, err := db.Tracks(ctx)
		if err != nil {
			return err
		}
		for _, t := range tracks {
			fmt.Fprintf(out, "%s\t%s\n", t, displayTrack(names, t))
		}
		return nil

	case lapsLeaderboard:
		board, err := db.Leaderboard(ctx, lapsLimit)
		if err != nil {
			return err
		}
		if lapsJSON {
			return writeJSON(out, board)
		}
		renderLeaderboard(out, board)
		return nil
	}

	var laps []store.BestLap
	switch {
	case lapsPlayer != "":
		laps, err = db.PlayerLaps(ctx, lapsPlayer, lapsLimit)
	case len(args) == 1:
		laps, err = db.BestLaps(ctx, args[0], lapsLimit)
	default:
		laps, err = db.TopPerTrack(ctx)
	}
	if err != nil {
		return err
	}

	if lapsJSON {
		return writeJSON(out, laps)
	}
	renderLaps(out, laps, names)
	return nil
}

// checkLapsView rejects combinations of views that cannot be shown together.
func checkLapsView(hasTrack bool) error {
	n := 0
	for _, set := range []bool{hasTrack, lapsPlayer != "", lapsLeaderboard, lapsTracks} {
		if set {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("a track argument, --player, --leaderboard and --tracks are mutually exclusive")
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderLaps writes laps as a table.
func renderLaps(out io.Writer, laps []store.BestLap, names config.TrackNames) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Track", "Driver", "Car", "Lap", "Date"})
	for i, l := range laps {
		date := ""
		if !l.Recorded.IsZero() {
			date = l.Recorded.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{i + 1, displayTrack(names, l.Track), l.Player, l.Car, laptime.Format(l.LapMs), date})
	}
	t.Render()
}

// renderLeaderboard writes the driver ranking as a table.
func renderLeaderboard(out io.Writer, board []store.PlayerRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Driver", "Best Lap", "Laps"})
	for i, r := range board {
		t.AppendRow(table.Row{i + 1, r.Player, laptime.Format(r.BestMs), r.Laps})
	}
	t.Render()
}

// displayTrack returns the configured name of key, or a readable form of
// it: "ks_nordschleife" becomes "Ks Nordschleife".
func displayTrack(names config.TrackNames, key string) string {
	if name, ok := names.Lookup(key); ok {
		return name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
