package ttgen

import (
	"encoding/binary"
	"testing"

	"github.com/atlas-transit/horizon/internal/fsutil"
	"github.com/atlas-transit/horizon/internal/timetable"
)

// The encoder must honor the file-format sort contracts regardless of
// insertion order.
func TestBuildSortsTransfersByArrival(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddStation("S0", 0, 0)
	s1 := b.AddStation("S1", 0, 0)
	s2 := b.AddStation("S2", 0, 0)
	b.AddTransfer(s0, s2, 5)
	b.AddTransfer(s1, s0, 4)
	b.AddTransfer(s2, s1, 3)
	b.AddTransfer(s0, s1, 2)

	bufs, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	const recSize = 5
	n := len(bufs.Transfers) / recSize
	if n != 4 {
		t.Fatalf("encoded %d transfers, want 4", n)
	}
	prev := -1
	for i := 0; i < n; i++ {
		arr := int(binary.BigEndian.Uint16(bufs.Transfers[i*recSize+2:]))
		if arr < prev {
			t.Fatalf("transfers not sorted by arrival station at record %d", i)
		}
		prev = arr
	}
}

func TestBuildSortsConnectionsByDecreasingDeparture(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddStation("S0", 0, 0)
	s1 := b.AddStation("S1", 0, 0)
	s2 := b.AddStation("S2", 0, 0)
	r := b.AddRoute("r", timetable.VehicleBus)
	day := b.Day("2025-03-14")
	if _, err := day.AddTrip(r, "S2", []TripStop{
		{StopID: s0, DepMins: 420},
		{StopID: s1, ArrMins: 430, DepMins: 432},
		{StopID: s2, ArrMins: 440},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := day.AddTrip(r, "S2", []TripStop{
		{StopID: s0, DepMins: 500},
		{StopID: s2, ArrMins: 530},
	}); err != nil {
		t.Fatal(err)
	}

	bufs, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	db := bufs.Days["2025-03-14"]
	const recSize = 12
	n := len(db.Connections) / recSize
	if n != 3 {
		t.Fatalf("encoded %d connections, want 3", n)
	}
	prev := 1 << 16
	for i := 0; i < n; i++ {
		dep := int(binary.BigEndian.Uint16(db.Connections[i*recSize+2:]))
		if dep > prev {
			t.Fatalf("connections not sorted by decreasing departure at record %d", i)
		}
		prev = dep
	}
	if len(db.ConnectionSuccessors) != n*4 {
		t.Fatalf("successor table has %d bytes for %d connections", len(db.ConnectionSuccessors), n)
	}
}

func TestAddTripRejectsBadInput(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddStation("S0", 0, 0)
	s1 := b.AddStation("S1", 0, 0)
	r := b.AddRoute("r", timetable.VehicleBus)
	day := b.Day("2025-03-14")

	if _, err := day.AddTrip(r, "S1", []TripStop{{StopID: s0, DepMins: 420}}); err == nil {
		t.Error("AddTrip accepted a single-stop trip")
	}
	if _, err := day.AddTrip(r, "S1", []TripStop{
		{StopID: s0, DepMins: 430},
		{StopID: s1, ArrMins: 420},
	}); err == nil {
		t.Error("AddTrip accepted a connection arriving before it departs")
	}
}

func TestBuildRejectsOversizedWalk(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddStation("S0", 0, 0)
	s1 := b.AddStation("S1", 0, 0)
	b.AddTransfer(s0, s1, 300)
	if _, err := b.Build(); err == nil {
		t.Fatal("Build accepted a 300-minute walk")
	}
}

func TestWriteDirLaysOutAllFiles(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddStation("S0", 0, 0)
	s1 := b.AddStation("S1", 0, 0)
	r := b.AddRoute("r", timetable.VehicleTram)
	b.AddTransfer(s1, s1, 0)
	if _, err := b.Day("2025-03-14").AddTrip(r, "S1", []TripStop{
		{StopID: s0, DepMins: 420},
		{StopID: s1, ArrMins: 430},
	}); err != nil {
		t.Fatal(err)
	}

	fs := fsutil.NewMemoryFileSystem()
	if err := b.WriteDir(fs, "tt"); err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	if err := fsutil.CheckTimetableDir(fs, "tt"); err != nil {
		t.Fatalf("written directory fails the shape check: %v", err)
	}
	if err := fsutil.CheckDayDir(fs, "tt/2025-03-14"); err != nil {
		t.Fatalf("written day directory fails the shape check: %v", err)
	}
}
