// Package ttgen builds binary timetables programmatically: in-memory
// buffers for tests, or an on-disk timetable directory for development
// data. It is the write-side counterpart of the read-only timetable
// views and produces files honoring the format's sort contracts
// (transfers by arrival station, connections by decreasing departure
// time, circular successor links per trip).
package ttgen

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/text/encoding/charmap"

	"github.com/atlas-transit/horizon/internal/fsutil"
	"github.com/atlas-transit/horizon/internal/timetable"
)

// Builder accumulates a timetable. Add all stations before platforms so
// that platform stop ids can be resolved, and keep every id it returns.
type Builder struct {
	strings     []string
	stringIndex map[string]int

	stations  []station
	aliases   [][2]int // alias string, station name string
	platforms []platform
	routes    []route
	transfers []transfer

	days map[string]*DayBuilder
}

type station struct {
	name     int
	lon, lat int32
}

type platform struct {
	name      int
	stationID int
}

type route struct {
	name int
	kind timetable.Vehicle
}

type transfer struct {
	dep, arr, minutes int
}

// NewBuilder returns an empty timetable builder.
func NewBuilder() *Builder {
	return &Builder{
		stringIndex: make(map[string]int),
		days:        make(map[string]*DayBuilder),
	}
}

func (b *Builder) intern(s string) int {
	if i, ok := b.stringIndex[s]; ok {
		return i
	}
	i := len(b.strings)
	b.strings = append(b.strings, s)
	b.stringIndex[s] = i
	return i
}

// AddStation registers a station and returns its id, which is also its
// stop id.
func (b *Builder) AddStation(name string, lon, lat float64) int {
	id := len(b.stations)
	b.stations = append(b.stations, station{
		name: b.intern(name),
		lon:  degreesToUnits(lon),
		lat:  degreesToUnits(lat),
	})
	return id
}

func degreesToUnits(deg float64) int32 {
	return int32(deg / 360.0 * (1 << 32))
}

// AddAlias registers an alternative name for a station name.
func (b *Builder) AddAlias(alias, stationName string) {
	b.aliases = append(b.aliases, [2]int{b.intern(alias), b.intern(stationName)})
}

// AddPlatform registers a platform of the given station and returns its
// stop id. All stations must have been added already.
func (b *Builder) AddPlatform(name string, stationID int) int {
	b.platforms = append(b.platforms, platform{name: b.intern(name), stationID: stationID})
	return len(b.stations) + len(b.platforms) - 1
}

// AddRoute registers a route and returns its id.
func (b *Builder) AddRoute(name string, kind timetable.Vehicle) int {
	b.routes = append(b.routes, route{name: b.intern(name), kind: kind})
	return len(b.routes) - 1
}

// AddTransfer registers a walking edge between two stations.
func (b *Builder) AddTransfer(depStationID, arrStationID, minutes int) {
	b.transfers = append(b.transfers, transfer{dep: depStationID, arr: arrStationID, minutes: minutes})
}

// Day returns the builder for the given YYYY-MM-DD travel day, creating
// it on first use.
func (b *Builder) Day(date string) *DayBuilder {
	d, ok := b.days[date]
	if !ok {
		d = &DayBuilder{parent: b}
		b.days[date] = d
	}
	return d
}

// DayBuilder accumulates one travel day's trips.
type DayBuilder struct {
	parent *Builder
	trips  []trip
}

type trip struct {
	routeID     int
	destination int
	stops       []TripStop
}

// TripStop is one scheduled stop of a trip. ArrMins of the first stop
// and DepMins of the last are unused.
type TripStop struct {
	StopID  int
	ArrMins int
	DepMins int
}

// AddTrip registers a trip calling at the given stops in order and
// returns its trip id. A trip needs at least two stops and at most 256
// (the connection format's per-trip position is a single byte).
func (d *DayBuilder) AddTrip(routeID int, destination string, stops []TripStop) (int, error) {
	if len(stops) < 2 {
		return 0, fmt.Errorf("trip needs at least two stops, got %d", len(stops))
	}
	if len(stops) > 256 {
		return 0, fmt.Errorf("trip has %d stops; the format carries at most 256", len(stops))
	}
	for i := 0; i+1 < len(stops); i++ {
		if stops[i+1].ArrMins < stops[i].DepMins {
			return 0, fmt.Errorf("stop %d: arrival %d before departure %d", i+1, stops[i+1].ArrMins, stops[i].DepMins)
		}
	}
	d.trips = append(d.trips, trip{
		routeID:     routeID,
		destination: d.parent.intern(destination),
		stops:       stops,
	})
	return len(d.trips) - 1, nil
}

// Build encodes everything added so far into in-memory buffers.
func (b *Builder) Build() (timetable.Buffers, error) {
	var out timetable.Buffers

	strs, err := encodeStrings(b.strings)
	if err != nil {
		return out, err
	}
	out.Strings = strs

	out.Stations = make([]byte, 0, len(b.stations)*10)
	for _, s := range b.stations {
		out.Stations = appendU16(out.Stations, s.name)
		out.Stations = appendS32(out.Stations, s.lon)
		out.Stations = appendS32(out.Stations, s.lat)
	}

	out.StationAliases = make([]byte, 0, len(b.aliases)*4)
	for _, a := range b.aliases {
		out.StationAliases = appendU16(out.StationAliases, a[0])
		out.StationAliases = appendU16(out.StationAliases, a[1])
	}

	out.Platforms = make([]byte, 0, len(b.platforms)*4)
	for _, p := range b.platforms {
		out.Platforms = appendU16(out.Platforms, p.name)
		out.Platforms = appendU16(out.Platforms, p.stationID)
	}

	out.Routes = make([]byte, 0, len(b.routes)*3)
	for _, r := range b.routes {
		out.Routes = appendU16(out.Routes, r.name)
		out.Routes = append(out.Routes, byte(r.kind))
	}

	transfers := make([]transfer, len(b.transfers))
	copy(transfers, b.transfers)
	sort.SliceStable(transfers, func(i, j int) bool { return transfers[i].arr < transfers[j].arr })
	out.Transfers = make([]byte, 0, len(transfers)*5)
	for _, tr := range transfers {
		if tr.minutes < 0 || tr.minutes > 255 {
			return out, fmt.Errorf("transfer walk of %d minutes out of [0, 255]", tr.minutes)
		}
		out.Transfers = appendU16(out.Transfers, tr.dep)
		out.Transfers = appendU16(out.Transfers, tr.arr)
		out.Transfers = append(out.Transfers, byte(tr.minutes))
	}

	out.Days = make(map[string]timetable.DayBuffers, len(b.days))
	for date, d := range b.days {
		db, err := d.build()
		if err != nil {
			return out, fmt.Errorf("day %s: %w", date, err)
		}
		out.Days[date] = db
	}
	return out, nil
}

// connRecord is a connection before sorting and id assignment.
type connRecord struct {
	depStop, depMins, arrStop, arrMins int
	tripID, tripPos                    int
}

func (d *DayBuilder) build() (timetable.DayBuffers, error) {
	var out timetable.DayBuffers

	out.Trips = make([]byte, 0, len(d.trips)*4)
	var conns []connRecord
	for tripID, t := range d.trips {
		out.Trips = appendU16(out.Trips, t.routeID)
		out.Trips = appendU16(out.Trips, t.destination)
		for i := 0; i+1 < len(t.stops); i++ {
			from, to := t.stops[i], t.stops[i+1]
			if to.ArrMins < from.DepMins {
				return out, fmt.Errorf("trip %d: arrival %d before departure %d", tripID, to.ArrMins, from.DepMins)
			}
			conns = append(conns, connRecord{
				depStop: from.StopID, depMins: from.DepMins,
				arrStop: to.StopID, arrMins: to.ArrMins,
				tripID: tripID, tripPos: i,
			})
		}
	}

	// The format wants connections globally sorted by decreasing
	// departure time.
	sort.SliceStable(conns, func(i, j int) bool { return conns[i].depMins > conns[j].depMins })

	// Successors: the next connection of the same trip, wrapping to the
	// trip's first connection after its last.
	byTrip := make(map[int][]int) // tripID -> connection ids in tripPos order
	for id, c := range conns {
		byTrip[c.tripID] = append(byTrip[c.tripID], id)
	}
	for _, ids := range byTrip {
		sort.Slice(ids, func(i, j int) bool { return conns[ids[i]].tripPos < conns[ids[j]].tripPos })
	}
	succ := make([]int, len(conns))
	for _, ids := range byTrip {
		for i, id := range ids {
			succ[id] = ids[(i+1)%len(ids)]
		}
	}

	out.Connections = make([]byte, 0, len(conns)*12)
	for _, c := range conns {
		out.Connections = appendU16(out.Connections, c.depStop)
		out.Connections = appendU16(out.Connections, c.depMins)
		out.Connections = appendU16(out.Connections, c.arrStop)
		out.Connections = appendU16(out.Connections, c.arrMins)
		out.Connections = appendS32(out.Connections, int32(c.tripID<<8|c.tripPos))
	}
	out.ConnectionSuccessors = make([]byte, 0, len(conns)*4)
	for _, s := range succ {
		out.ConnectionSuccessors = appendS32(out.ConnectionSuccessors, int32(s))
	}
	return out, nil
}

// WriteDir encodes the timetable and writes it as a directory tree.
func (b *Builder) WriteDir(fsys fsutil.FileSystem, dir string) error {
	bufs, err := b.Build()
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		data []byte
	}{
		{"strings.txt", bufs.Strings},
		{"stations.bin", bufs.Stations},
		{"station-aliases.bin", bufs.StationAliases},
		{"platforms.bin", bufs.Platforms},
		{"routes.bin", bufs.Routes},
		{"transfers.bin", bufs.Transfers},
	} {
		if err := fsys.WriteFile(filepath.Join(dir, f.name), f.data, 0o644); err != nil {
			return err
		}
	}
	for date, db := range bufs.Days {
		dayDir := filepath.Join(dir, date)
		if err := fsys.MkdirAll(dayDir, 0o755); err != nil {
			return err
		}
		for _, f := range []struct {
			name string
			data []byte
		}{
			{"trips.bin", db.Trips},
			{"connections.bin", db.Connections},
			{"connections-succ.bin", db.ConnectionSuccessors},
		} {
			if err := fsys.WriteFile(filepath.Join(dayDir, f.name), f.data, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeStrings(strs []string) ([]byte, error) {
	enc := charmap.ISO8859_1.NewEncoder()
	var out []byte
	for _, s := range strs {
		encoded, err := enc.Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("string %q is not Latin-1: %w", s, err)
		}
		out = append(out, encoded...)
		out = append(out, '\n')
	}
	return out, nil
}

func appendU16(b []byte, v int) []byte {
	return binary.BigEndian.AppendUint16(b, uint16(v))
}

func appendS32(b []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(v))
}
