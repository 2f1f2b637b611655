// Package router builds journey profiles over a timetable day.
//
// A profile answers, for every station at once, the question "leaving
// this station at time t, what are the Pareto-optimal ways to reach the
// destination on the given day?". It is built by
// a single backward scan over the day's connections, which the file
// format keeps sorted by decreasing departure time: when a connection
// is processed, everything a traveler could do after riding it (stay
// seated, or transfer and catch something later) has already been
// propagated into the per-trip and per-station frontiers.
//
// Each frontier tuple carries the arrival time at the destination, the
// number of changes, the departure time from the station, and a payload
// naming the first connection to board plus how many further stops of
// that trip to stay on. The extractor in the journey package walks that
// payload chain to reconstruct concrete legs.
package router

import (
	"time"

	"github.com/atlas-transit/horizon/internal/packed"
	"github.com/atlas-transit/horizon/internal/pareto"
	"github.com/atlas-transit/horizon/internal/timetable"
)

// WalkOnlyPayload marks a profile tuple describing a pure walking
// journey: no connection is boarded. The payload's connection field
// holds no meaning for such tuples.
const WalkOnlyPayload int32 = -1

// PackPayload encodes a boarding connection id and the count of
// intermediate stops ridden past it.
func PackPayload(connectionID, intermediateStops int) int32 {
	return int32(connectionID<<8 | intermediateStops)
}

// UnpackPayload decodes a payload built by PackPayload.
func UnpackPayload(p int32) (connectionID, intermediateStops int) {
	return int(uint32(p) >> 8), int(uint32(p) & 0xff)
}

// Profile is the result of one backward scan: a Pareto frontier per
// station, plus the day views the extractor needs to walk connections
// forward.
type Profile struct {
	Timetable    *timetable.Timetable
	Day          *timetable.Day
	ArrStationID int

	fronts []pareto.Frontier
}

// Date returns the travel day the profile was built for.
func (p *Profile) Date() time.Time { return p.Day.Date }

// ForStation returns the frontier of the given station; empty if the
// destination is unreachable from it.
func (p *Profile) ForStation(stationID int) pareto.Frontier {
	return p.fronts[stationID]
}

// BuildProfile scans the given day's connections backward and returns
// the profile for arrStationID. It fails only if the day has no
// timetable data; a malformed timetable (connections out of order)
// yields undefined results.
func BuildProfile(tt *timetable.Timetable, date time.Time, arrStationID int) (*Profile, error) {
	day, err := tt.DayFor(date)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	conns := day.Connections
	stationCount := tt.StationCount()

	// walkToDest[s] is the walking time from station s to the arrival
	// station, or -1. Precomputed so case (a) of the scan is one load.
	// Arriving at the destination station itself needs no transfer
	// record and no walk.
	walkToDest := make([]int, stationCount)
	for i := range walkToDest {
		walkToDest[i] = -1
	}
	destRange := tt.Transfers.ArrivingAt(arrStationID)
	for i := destRange.Start(); i < destRange.End(); i++ {
		walkToDest[tt.Transfers.DepStationID(i)] = tt.Transfers.Minutes(i)
	}
	walkToDest[arrStationID] = 0

	stationFronts := make([]*pareto.Builder, stationCount)
	tripFronts := make([]*pareto.Builder, day.Trips.Size())
	front := func(builders []*pareto.Builder, i int) *pareto.Builder {
		if builders[i] == nil {
			builders[i] = pareto.NewBuilder()
		}
		return builders[i]
	}

	// Pure walking journeys: a station with a transfer into the arrival
	// station can reach it at any departure time. Represent them with
	// departure at midnight; the destination itself gets no entry.
	for i := destRange.Start(); i < destRange.End(); i++ {
		s := tt.Transfers.DepStationID(i)
		if s == arrStationID {
			continue
		}
		w := tt.Transfers.Minutes(i)
		front(stationFronts, s).Add(packed.Pack(w, 0, WalkOnlyPayload).WithDep(0))
	}

	candidate := pareto.NewBuilder()
	for c := 0; c < conns.Size(); c++ {
		depStop, depMins := conns.DepStopID(c), conns.DepMins(c)
		arrStop, arrMins := conns.ArrStopID(c), conns.ArrMins(c)
		tripID := conns.TripID(c)
		arrStation := tt.StationIDOf(arrStop)

		candidate.Clear()

		// (a) Ride c, then walk to the destination.
		if w := walkToDest[arrStation]; w >= 0 {
			if a := arrMins + w; a <= packed.MaxArrMins {
				candidate.AddTuple(a, 0, PackPayload(c, 0))
			}
		}

		// (b) Ride c and stay on the trip.
		if tf := tripFronts[tripID]; tf != nil {
			candidate.AddAll(tf)
		}

		// (c) Ride c, alight, and catch a later departure from the
		// arrival stop's station.
		if sf := stationFronts[arrStation]; sf != nil {
			sf.ForEach(func(t packed.Criteria) {
				if t.Dep() >= arrMins && t.Changes() < packed.MaxChanges {
					candidate.Add(packed.Pack(t.Arr(), t.Changes()+1, PackPayload(c, 0)))
				}
			})
		}

		if candidate.IsEmpty() {
			continue
		}

		front(tripFronts, tripID).AddAll(candidate)

		// Propagate to every station that can walk to c's departure
		// stop, unless that station's frontier already covers the
		// candidate set at this departure time.
		depStation := tt.StationIDOf(depStop)
		if sf := stationFronts[depStation]; sf != nil && sf.FullyDominates(candidate, depMins) {
			continue
		}
		// Boarding in place first, then every station with a walking
		// edge into the departure station.
		propagate(front(stationFronts, depStation), candidate, conns, c, depMins)
		walkRange := tt.Transfers.ArrivingAt(depStation)
		for i := walkRange.Start(); i < walkRange.End(); i++ {
			from := tt.Transfers.DepStationID(i)
			if from == depStation {
				continue
			}
			d := depMins - tt.Transfers.Minutes(i)
			if d < packed.TimeOrigin {
				continue
			}
			propagate(front(stationFronts, from), candidate, conns, c, d)
		}
	}

	fronts := make([]pareto.Frontier, stationCount)
	tuples := 0
	for s, b := range stationFronts {
		if b == nil {
			fronts[s] = pareto.Empty
		} else {
			fronts[s] = b.Build()
			tuples += fronts[s].Size()
		}
	}

	diagf("profile for station %d on %s: %d connections, %d tuples, %s",
		arrStationID, day.Date.Format("2006-01-02"), conns.Size(), tuples, time.Since(start))

	return &Profile{
		Timetable:    tt,
		Day:          day,
		ArrStationID: arrStationID,
		fronts:       fronts,
	}, nil
}

// propagate merges the candidate front into a station front, attaching
// the departure time d and re-pointing each payload at the scanned
// connection c. The payload's stop count records how many trip
// positions ahead the previously referenced connection sits.
func propagate(target, candidate *pareto.Builder, conns timetable.Connections, c, d int) {
	candidate.ForEach(func(t packed.Criteria) {
		prevConn, _ := UnpackPayload(t.Payload())
		stops := conns.TripPos(prevConn) - conns.TripPos(c)
		target.Add(t.WithDep(d).WithPayload(PackPayload(c, stops)))
	})
}
