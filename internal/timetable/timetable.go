package timetable

import (
	"fmt"
	"time"

	"github.com/atlas-transit/horizon/internal/timeutil"
)

// Day bundles the two date-scoped views.
type Day struct {
	Date        time.Time
	Trips       Trips
	Connections Connections
}

// Timetable ties the typed views together and owns the day cache. The
// fixed views live for the whole process; trips and connections are
// loaded per travel day, and exactly one day is kept warm at a time.
//
// A Timetable is safe for concurrent reads of the fixed views, but
// DayFor mutates the cache; callers serving requests from multiple
// goroutines must serialize access themselves (the api package does).
type Timetable struct {
	Strings   *StringTable
	Stations  Stations
	Aliases   StationAliases
	Platforms Platforms
	Routes    Routes
	Transfers Transfers

	loadDay func(date time.Time) (Trips, Connections, error)
	cached  *Day

	// closers releases memory-mapped buffers; nil for in-memory tables.
	closers []func() error
}

// Buffers holds the raw bytes of every fixed table, for building a
// timetable without files.
type Buffers struct {
	Strings        []byte
	Stations       []byte
	StationAliases []byte
	Platforms      []byte
	Routes         []byte
	Transfers      []byte
	Days           map[string]DayBuffers
}

// DayBuffers holds the raw bytes of one day's tables.
type DayBuffers struct {
	Trips                []byte
	Connections          []byte
	ConnectionSuccessors []byte
}

// NewFromBuffers assembles a timetable from in-memory buffers. Days are
// keyed by YYYY-MM-DD.
func NewFromBuffers(b Buffers) (*Timetable, error) {
	days := b.Days
	t, err := assemble(b, nil)
	if err != nil {
		return nil, err
	}
	t.loadDay = func(date time.Time) (Trips, Connections, error) {
		db, ok := days[timeutil.FormatDate(date)]
		if !ok {
			return Trips{}, Connections{}, fmt.Errorf("no timetable for %s", timeutil.FormatDate(date))
		}
		return t.assembleDay(db)
	}
	return t, nil
}

func assemble(b Buffers, loadDay func(time.Time) (Trips, Connections, error)) (*Timetable, error) {
	strings, err := NewStringTable(b.Strings)
	if err != nil {
		return nil, err
	}
	stations, err := NewStations(b.Stations, strings)
	if err != nil {
		return nil, err
	}
	aliases, err := NewStationAliases(b.StationAliases, strings)
	if err != nil {
		return nil, err
	}
	platforms, err := NewPlatforms(b.Platforms, strings)
	if err != nil {
		return nil, err
	}
	routes, err := NewRoutes(b.Routes, strings)
	if err != nil {
		return nil, err
	}
	transfers, err := NewTransfers(b.Transfers, stations.Size())
	if err != nil {
		return nil, err
	}
	return &Timetable{
		Strings:   strings,
		Stations:  stations,
		Aliases:   aliases,
		Platforms: platforms,
		Routes:    routes,
		Transfers: transfers,
		loadDay:   loadDay,
	}, nil
}

func (t *Timetable) assembleDay(db DayBuffers) (Trips, Connections, error) {
	trips, err := NewTrips(db.Trips, t.Strings)
	if err != nil {
		return Trips{}, Connections{}, err
	}
	conns, err := NewConnections(db.Connections, db.ConnectionSuccessors)
	if err != nil {
		return Trips{}, Connections{}, err
	}
	return trips, conns, nil
}

// DayFor returns the trips and connections for the given travel day,
// serving repeated requests for the same day from the cache.
func (t *Timetable) DayFor(date time.Time) (*Day, error) {
	if t.cached != nil && timeutil.FormatDate(t.cached.Date) == timeutil.FormatDate(date) {
		return t.cached, nil
	}
	trips, conns, err := t.loadDay(date)
	if err != nil {
		return nil, err
	}
	t.cached = &Day{Date: date, Trips: trips, Connections: conns}
	return t.cached, nil
}

// StationCount returns the number of stations, which is also the
// boundary of the stop-id namespace: ids below it are stations, ids at
// or above it are platforms offset by it.
func (t *Timetable) StationCount() int { return t.Stations.Size() }

// IsStationID reports whether the stop id names a station rather than a
// platform.
func (t *Timetable) IsStationID(stopID int) bool { return stopID < t.StationCount() }

// StationIDOf resolves a stop id to its station: the identity for
// stations, the owning station for platforms.
func (t *Timetable) StationIDOf(stopID int) int {
	if t.IsStationID(stopID) {
		return stopID
	}
	return t.Platforms.StationID(stopID - t.StationCount())
}

// StopName returns the station name the stop belongs to.
func (t *Timetable) StopName(stopID int) string {
	return t.Stations.Name(t.StationIDOf(stopID))
}

// PlatformNameOf returns the platform's own name if the stop id names a
// platform.
func (t *Timetable) PlatformNameOf(stopID int) (string, bool) {
	if t.IsStationID(stopID) {
		return "", false
	}
	return t.Platforms.Name(stopID - t.StationCount()), true
}

// Close releases any memory-mapped buffers. The timetable must not be
// used afterwards.
func (t *Timetable) Close() error {
	var first error
	for _, c := range t.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	t.closers = nil
	return first
}
