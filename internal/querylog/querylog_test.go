package querylog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "queries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Record(Entry{
		CreatedUnix: 100, TravelDate: "2025-03-14",
		FromStation: "A", ToStation: "B", DepMins: 600,
		JourneyCount: 3, ProfileMicros: 1500, ExtractMicros: 90,
	}))
	require.NoError(t, db.Record(Entry{
		CreatedUnix: 200, TravelDate: "2025-03-14",
		FromStation: "B", ToStation: "C", DepMins: 630,
		JourneyCount: 1, ProfileMicros: 900, ExtractMicros: 40,
	}))

	entries, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	require.Equal(t, "B", entries[0].FromStation)
	require.Equal(t, "A", entries[1].FromStation)
	require.NotEmpty(t, entries[0].ID)

	limited, err := db.Recent(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	// Empty log: zero stats, no error.
	s, err := db.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, s.Count)

	for i, pm := range []int64{1000, 2000, 3000, 4000} {
		require.NoError(t, db.Record(Entry{
			CreatedUnix: int64(i + 1), TravelDate: "2025-03-14",
			FromStation: "A", ToStation: "B",
			JourneyCount: i + 1, ProfileMicros: pm, ExtractMicros: pm / 10,
		}))
	}

	s, err = db.Stats()
	require.NoError(t, err)
	require.Equal(t, 4, s.Count)
	require.InDelta(t, 2.5, s.AvgJourneys, 1e-9)
	require.GreaterOrEqual(t, s.ProfileP85, s.ProfileP50)
	require.GreaterOrEqual(t, s.ProfileP98, s.ProfileP85)
	require.GreaterOrEqual(t, s.ProfileP50, 1000.0)
	require.LessOrEqual(t, s.ProfileP98, 4000.0)
	require.GreaterOrEqual(t, s.ExtractP98, s.ExtractP50)
}

func TestSchemaIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Record(Entry{CreatedUnix: 1, TravelDate: "2025-03-14", FromStation: "A", ToStation: "B"}))
	require.NoError(t, db.Close())

	// Reopening an existing file keeps its rows.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	entries, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
