package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lapwatch/lapwatch-go/internal/store"
	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

func TestReplayFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "output_1.log")
	second := filepath.Join(dir, "output_2.log")
	if err := os.WriteFile(first, []byte("TRACK=ks_monza\nLAP Alice 1:23.456\nCuts: 0\nLAP Bob 1::0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// The second file continues the same session.
	if err := os.WriteFile(second, []byte("REQUESTED CAR: gt3\nDRIVER ACCEPTED FOR CAR Alice\n"), 0644); err != nil {
		t.Fatal(err)
	}

	db, err := store.Open(filepath.Join(dir, "laps.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	err = replayFiles(context.Background(), []string{first, second}, db, "pretty", &out, logger)
	if err != nil {
		t.Fatalf("replayFiles() error = %v", err)
	}

	want := "[QUEUED] Alice 1:23.456 @ ks_monza (waiting car)\n" +
		"[PENDING FLUSH] Alice [gt3] 1:23.456 @ ks_monza\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if !strings.Contains(logs.String(), "line skipped") {
		t.Errorf("malformed line not logged: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "stored=1") {
		t.Errorf("summary missing stored count: %s", logs.String())
	}

	laps, err := db.BestLaps(context.Background(), "ks_monza", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(laps) != 1 || laps[0].Player != "Alice" || laps[0].Car != "gt3" {
		t.Errorf("stored laps = %+v", laps)
	}
}

func TestReplayFiles_MissingFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	err := replayFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing")},
		lapwatch.DiscardStore, "pretty", &bytes.Buffer{}, logger)
	if err == nil {
		t.Fatal("replayFiles() expected error for missing file")
	}
}
