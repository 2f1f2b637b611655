package router_test

import (
	"testing"
	"time"

	"github.com/atlas-transit/horizon/internal/packed"
	"github.com/atlas-transit/horizon/internal/router"
	"github.com/atlas-transit/horizon/internal/timetable"
	"github.com/atlas-transit/horizon/internal/timetable/ttgen"
	"github.com/atlas-transit/horizon/internal/timeutil"
)

const testDate = "2025-03-14"

func date(t *testing.T) time.Time {
	t.Helper()
	d, err := timeutil.ParseDate(testDate)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func build(t *testing.T, b *ttgen.Builder) *timetable.Timetable {
	t.Helper()
	bufs, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tt, err := timetable.NewFromBuffers(bufs)
	if err != nil {
		t.Fatalf("NewFromBuffers: %v", err)
	}
	return tt
}

type point struct{ dep, arr, ch int }

func points(f interface{ ForEach(func(packed.Criteria)) }) []point {
	var out []point
	f.ForEach(func(c packed.Criteria) {
		out = append(out, point{dep: c.Dep(), arr: c.Arr(), ch: c.Changes()})
	})
	return out
}

func wantPoints(t *testing.T, got []point, want []point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("frontier has %d tuples %v, want %d %v", len(got), got, len(want), want)
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing tuple %+v in %v", w, got)
		}
	}
}

// A timetable with only a walking edge still yields a pure-walk profile
// entry for the departing station.
func TestProfileWalkOnly(t *testing.T) {
	b := ttgen.NewBuilder()
	a := b.AddStation("A", 0, 0)
	dest := b.AddStation("B", 0, 0)
	b.AddTransfer(a, dest, 7)
	b.Day(testDate) // the day exists but has no trips

	tt := build(t, b)
	p, err := router.BuildProfile(tt, date(t), dest)
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}

	wantPoints(t, points(p.ForStation(a)), []point{{dep: 0, arr: 7, ch: 0}})

	var tuple packed.Criteria
	p.ForStation(a).ForEach(func(c packed.Criteria) { tuple = c })
	if tuple.Payload() != router.WalkOnlyPayload {
		t.Errorf("walk-only tuple carries payload %d", tuple.Payload())
	}
}

// One direct connection with a zero-minute self-transfer at the
// destination.
func TestProfileSingleConnection(t *testing.T) {
	b := ttgen.NewBuilder()
	a := b.AddStation("A", 0, 0)
	dest := b.AddStation("B", 0, 0)
	r := b.AddRoute("m1", timetable.VehicleMetro)
	b.AddTransfer(dest, dest, 0)
	if _, err := b.Day(testDate).AddTrip(r, "B", []ttgen.TripStop{
		{StopID: a, DepMins: 600},
		{StopID: dest, ArrMins: 612},
	}); err != nil {
		t.Fatal(err)
	}

	tt := build(t, b)
	p, err := router.BuildProfile(tt, date(t), dest)
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}

	wantPoints(t, points(p.ForStation(a)), []point{{dep: 600, arr: 612, ch: 0}})

	var tuple packed.Criteria
	p.ForStation(a).ForEach(func(c packed.Criteria) { tuple = c })
	connID, stops := router.UnpackPayload(tuple.Payload())
	if stops != 0 {
		t.Errorf("payload says %d intermediate stops, want 0", stops)
	}
	if p.Day.Connections.DepStopID(connID) != a {
		t.Errorf("payload connection departs from stop %d, want %d", p.Day.Connections.DepStopID(connID), a)
	}
}

// Two legs with a required walk between two hub stations.
func TestProfileWithTransfer(t *testing.T) {
	b := ttgen.NewBuilder()
	a := b.AddStation("A", 0, 0)
	h1 := b.AddStation("H1", 0, 0)
	h2 := b.AddStation("H2", 0, 0)
	dest := b.AddStation("B", 0, 0)
	r := b.AddRoute("r", timetable.VehicleTrain)
	b.AddTransfer(h1, h2, 2)
	b.AddTransfer(dest, dest, 0)
	day := b.Day(testDate)
	if _, err := day.AddTrip(r, "H1", []ttgen.TripStop{
		{StopID: a, DepMins: 600},
		{StopID: h1, ArrMins: 610},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := day.AddTrip(r, "B", []ttgen.TripStop{
		{StopID: h2, DepMins: 615},
		{StopID: dest, ArrMins: 625},
	}); err != nil {
		t.Fatal(err)
	}

	tt := build(t, b)
	p, err := router.BuildProfile(tt, date(t), dest)
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}

	wantPoints(t, points(p.ForStation(a)), []point{{dep: 600, arr: 625, ch: 1}})
	wantPoints(t, points(p.ForStation(h2)), []point{{dep: 615, arr: 625, ch: 0}})
}

// Oracle network: the profile must contain exactly the enumerated
// Pareto optima.
//
// Stations A, B, C, D (destination). Self-transfer at D; C->D walk 10.
//
//	fast:   A 480 -> B 500 -> D 520   (one trip, stays aboard)
//	detour: A 490 -> C 540            (later departure, walk to D at 550)
//	local:  B 505 -> C 515            (connects out of fast's first hop)
//	late:   A 520 -> D 560            (latest departure, direct)
func TestProfileOracle(t *testing.T) {
	b := ttgen.NewBuilder()
	a := b.AddStation("A", 0, 0)
	bb := b.AddStation("B", 0, 0)
	c := b.AddStation("C", 0, 0)
	dest := b.AddStation("D", 0, 0)
	r := b.AddRoute("r", timetable.VehicleBus)
	b.AddTransfer(a, a, 0)
	b.AddTransfer(bb, bb, 0)
	b.AddTransfer(c, c, 0)
	b.AddTransfer(dest, dest, 0)
	b.AddTransfer(c, dest, 10)

	day := b.Day(testDate)
	if _, err := day.AddTrip(r, "D", []ttgen.TripStop{
		{StopID: a, DepMins: 480},
		{StopID: bb, ArrMins: 500, DepMins: 502},
		{StopID: dest, ArrMins: 520},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := day.AddTrip(r, "C", []ttgen.TripStop{
		{StopID: a, DepMins: 490},
		{StopID: c, ArrMins: 540},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := day.AddTrip(r, "C", []ttgen.TripStop{
		{StopID: bb, DepMins: 505},
		{StopID: c, ArrMins: 515},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := day.AddTrip(r, "D", []ttgen.TripStop{
		{StopID: a, DepMins: 520},
		{StopID: dest, ArrMins: 560},
	}); err != nil {
		t.Fatal(err)
	}

	tt := build(t, b)
	p, err := router.BuildProfile(tt, date(t), dest)
	if err != nil {
		t.Fatalf("BuildProfile: %v", err)
	}

	// From A:
	//  - ride fast straight through: dep 480, arr 520, 0 changes
	//  - detour: dep 490, arr 550, 0 changes (walk C->D)
	//  - late direct: dep 520, arr 560, 0 changes
	// The fast->local->walk combination (dep 480, arr 525, 1 change) is
	// dominated by riding fast through. All three above are mutually
	// incomparable: later departures trade later arrivals.
	wantPoints(t, points(p.ForStation(a)), []point{
		{dep: 480, arr: 520, ch: 0},
		{dep: 490, arr: 550, ch: 0},
		{dep: 520, arr: 560, ch: 0},
	})

	// From B: ride fast's second hop (dep 502, arr 520, 0 changes), or
	// the local to C and walk (dep 505, arr 525, 0 changes).
	wantPoints(t, points(p.ForStation(bb)), []point{
		{dep: 502, arr: 520, ch: 0},
		{dep: 505, arr: 525, ch: 0},
	})
}

// A date with no timetable data fails cleanly.
func TestProfileMissingDay(t *testing.T) {
	b := ttgen.NewBuilder()
	b.AddStation("A", 0, 0)
	dest := b.AddStation("B", 0, 0)
	b.AddTransfer(0, dest, 7)
	tt := build(t, b)

	if _, err := router.BuildProfile(tt, date(t), dest); err == nil {
		t.Fatal("BuildProfile succeeded for a date with no timetable")
	}
}
