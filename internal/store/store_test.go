package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapwatch/lapwatch-go/pkg/lapwatch"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "laps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laps.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordLap(context.Background(), lapwatch.Lap{Player: "A", Car: "c", Track: "t", LapMs: 1}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	tracks, err := s.Tracks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tracks)
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "laps.db"))
	assert.Error(t, err)
}

func TestGetOrCreate(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	id1, err := s.GetOrCreate(ctx, Player, "Alice")
	require.NoError(t, err)
	id2, err := s.GetOrCreate(ctx, Player, "Alice")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := s.GetOrCreate(ctx, Player, "Bob")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	// Tables are independent.
	carID, err := s.GetOrCreate(ctx, Car, "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), carID)
}

func TestGetOrCreate_LookupFailure(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.db.Close())

	_, err := s.GetOrCreate(context.Background(), Player, "Alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.Contains(t, err.Error(), "looking up player")
}

func TestInsertLapTime(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	p, err := s.GetOrCreate(ctx, Player, "Alice")
	require.NoError(t, err)
	c, err := s.GetOrCreate(ctx, Car, "ks_ferrari_488_gt3")
	require.NoError(t, err)
	tr, err := s.GetOrCreate(ctx, Track, "ks_monza")
	require.NoError(t, err)

	require.NoError(t, s.InsertLapTime(ctx, p, c, tr, 83456))

	laps, err := s.BestLaps(ctx, "ks_monza", 10)
	require.NoError(t, err)
	require.Len(t, laps, 1)
	assert.Equal(t, int64(83456), laps[0].LapMs)
	assert.False(t, laps[0].Recorded.IsZero())
}

func TestInsertLapTime_ForeignKey(t *testing.T) {
	s := openTemp(t)
	err := s.InsertLapTime(context.Background(), 99, 99, 99, 1000)
	assert.Error(t, err)
}

func TestBestLaps(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	laps := []lapwatch.Lap{
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 84000},
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 83456},
		{Player: "Alice", Car: "gt4", Track: "ks_monza", LapMs: 90000},
		{Player: "Bob", Car: "gt3", Track: "ks_monza", LapMs: 83000},
		{Player: "Bob", Car: "gt3", Track: "ks_vallelunga", LapMs: 70000},
	}
	for _, l := range laps {
		require.NoError(t, s.RecordLap(ctx, l))
	}

	best, err := s.BestLaps(ctx, "ks_monza", 10)
	require.NoError(t, err)
	require.Len(t, best, 3)

	type row struct {
		player, car string
		ms          int64
	}
	var got []row
	for _, b := range best {
		assert.Equal(t, "ks_monza", b.Track)
		got = append(got, row{b.Player, b.Car, b.LapMs})
	}
	assert.Equal(t, []row{
		{"Bob", "gt3", 83000},
		{"Alice", "gt3", 83456},
		{"Alice", "gt4", 90000},
	}, got)

	limited, err := s.BestLaps(ctx, "ks_monza", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.BestLaps(ctx, "unknown_track", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTopPerTrack(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for _, l := range []lapwatch.Lap{
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 83456},
		{Player: "Bob", Car: "gt3", Track: "ks_monza", LapMs: 83000},
		{Player: "Carol", Car: "mx5", Track: "ks_brands_hatch-indy", LapMs: 55000},
	} {
		require.NoError(t, s.RecordLap(ctx, l))
	}

	top, err := s.TopPerTrack(ctx)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "ks_brands_hatch-indy", top[0].Track)
	assert.Equal(t, "Carol", top[0].Player)
	assert.Equal(t, "ks_monza", top[1].Track)
	assert.Equal(t, "Bob", top[1].Player)
}

func TestPlayerLaps(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for _, l := range []lapwatch.Lap{
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 84000},
		{Player: "Alice", Car: "mx5", Track: "ks_brands_hatch-indy", LapMs: 55000},
		{Player: "Bob", Car: "gt3", Track: "ks_monza", LapMs: 83000},
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 83456},
	} {
		require.NoError(t, s.RecordLap(ctx, l))
	}

	laps, err := s.PlayerLaps(ctx, "Alice", 10)
	require.NoError(t, err)
	require.Len(t, laps, 3)
	assert.Equal(t, []int64{55000, 83456, 84000}, []int64{laps[0].LapMs, laps[1].LapMs, laps[2].LapMs})
	assert.Equal(t, "ks_brands_hatch-indy", laps[0].Track)
	assert.Equal(t, "mx5", laps[0].Car)
	assert.False(t, laps[0].Recorded.IsZero())

	laps, err = s.PlayerLaps(ctx, "Alice", 1)
	require.NoError(t, err)
	assert.Len(t, laps, 1)

	laps, err = s.PlayerLaps(ctx, "Nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, laps)
}

func TestLeaderboard(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	for _, l := range []lapwatch.Lap{
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 84000},
		{Player: "Alice", Car: "gt3", Track: "ks_monza", LapMs: 83456},
		{Player: "Bob", Car: "gt3", Track: "ks_monza", LapMs: 83000},
		{Player: "Carol", Car: "mx5", Track: "ks_brands_hatch-indy", LapMs: 55000},
	} {
		require.NoError(t, s.RecordLap(ctx, l))
	}

	board, err := s.Leaderboard(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, []PlayerRecord{
		{Player: "Carol", BestMs: 55000, Laps: 1},
		{Player: "Bob", BestMs: 83000, Laps: 1},
		{Player: "Alice", BestMs: 83456, Laps: 2},
	}, board)

	board, err = s.Leaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, board, 2)
}

func TestRecordLap_ThroughReconciler(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	rec := lapwatch.NewReconciler(s)

	for _, line := range []string{
		"TRACK=csp/0/ks_nordschleife",
		"CONFIG=touristenfahrten",
		"REQUESTED CAR: bmw_m3_e30",
		"DRIVER ACCEPTED FOR CAR Alice",
		"LAP Alice 8:01.250",
		"Cuts: 0",
	} {
		res := rec.Apply(ctx, line)
		require.NoError(t, res.Err)
	}

	tracks, err := s.Tracks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ks_nordschleife-touristenfahrten"}, tracks)
}

func TestEntity_String(t *testing.T) {
	assert.Equal(t, "player", Player.String())
	assert.Equal(t, "car", Car.String())
	assert.Equal(t, "track", Track.String())
	assert.Equal(t, "unknown", Entity(9).String())
}
