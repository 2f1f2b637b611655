package journey

import (
	"fmt"
	"sort"

	"github.com/atlas-transit/horizon/internal/packed"
	"github.com/atlas-transit/horizon/internal/router"
)

// Extract reconstructs the concrete journeys a profile describes for
// travelers starting at depStationID, sorted by departure then arrival
// time. A profile tuple that cannot be resolved into a valid journey is
// an inconsistency in the profile and fails the whole extraction.
func Extract(p *router.Profile, depStationID int) ([]Journey, error) {
	var tuples []packed.Criteria
	p.ForStation(depStationID).ForEach(func(t packed.Criteria) {
		tuples = append(tuples, t)
	})

	journeys := make([]Journey, 0, len(tuples))
	for _, t := range tuples {
		j, err := extractOne(p, depStationID, t)
		if err != nil {
			return nil, fmt.Errorf("extracting journey for %v: %w", t, err)
		}
		journeys = append(journeys, j)
	}

	sort.SliceStable(journeys, func(i, j int) bool {
		if journeys[i].DepMins() != journeys[j].DepMins() {
			return journeys[i].DepMins() < journeys[j].DepMins()
		}
		return journeys[i].ArrMins() < journeys[j].ArrMins()
	})
	return journeys, nil
}

func extractOne(p *router.Profile, depStationID int, t0 packed.Criteria) (Journey, error) {
	tt := p.Timetable
	conns := p.Day.Connections

	arrAtDest := t0.Arr()
	remaining := t0.Changes()

	if t0.Payload() == router.WalkOnlyPayload {
		// No vehicle at all: one walk from start to destination.
		return New([]Leg{FootLeg{
			DepStop: stationStop(p, depStationID),
			DepMins: t0.Dep(),
			ArrStop: stationStop(p, p.ArrStationID),
			ArrMins: arrAtDest,
		}})
	}

	var legs []Leg
	currentStation := depStationID
	currentStop := stationStop(p, depStationID)
	currentMins := t0.Dep()

	// Boarding at another station starts with a walk there.
	firstConn, _ := router.UnpackPayload(t0.Payload())
	if boardStation := tt.StationIDOf(conns.DepStopID(firstConn)); boardStation != depStationID {
		w, ok := tt.Transfers.MinutesBetween(depStationID, boardStation)
		if !ok {
			return Journey{}, fmt.Errorf("no transfer from station %d to boarding station %d", depStationID, boardStation)
		}
		board := stopOf(p, conns.DepStopID(firstConn))
		legs = append(legs, FootLeg{
			DepStop: currentStop,
			DepMins: conns.DepMins(firstConn) - w,
			ArrStop: board,
			ArrMins: conns.DepMins(firstConn),
		})
		// The frontier tuple still lives at the start station;
		// currentStation deliberately stays put for the lookup below.
		currentStop = board
		currentMins = conns.DepMins(firstConn)
	}

	for remaining >= 0 {
		t, ok := p.ForStation(currentStation).Get(arrAtDest, remaining)
		if !ok {
			return Journey{}, fmt.Errorf("station %d has no tuple (arr=%d, changes=%d)", currentStation, arrAtDest, remaining)
		}
		if t.Payload() == router.WalkOnlyPayload {
			// The continuation is the closing walk; handled below.
			break
		}
		connID, nStops := router.UnpackPayload(t.Payload())

		// Between two rides, the connecting walk.
		if len(legs) > 0 {
			if _, foot := legs[len(legs)-1].(FootLeg); !foot {
				board := stopOf(p, conns.DepStopID(connID))
				boardStation := tt.StationIDOf(conns.DepStopID(connID))
				// The router boards at the alighting station itself with
				// no walk, whatever its transfer records say.
				w, ok := 0, boardStation == currentStation
				if !ok {
					w, ok = tt.Transfers.MinutesBetween(currentStation, boardStation)
				}
				if !ok {
					return Journey{}, fmt.Errorf("no transfer from station %d to %d", currentStation, boardStation)
				}
				legs = append(legs, FootLeg{
					DepStop: currentStop,
					DepMins: currentMins,
					ArrStop: board,
					ArrMins: currentMins + w,
				})
				currentStop = board
				currentMins = currentMins + w
			}
		}

		leg, alightStopID := transportLeg(p, connID, nStops)
		legs = append(legs, leg)
		currentStation = tt.StationIDOf(alightStopID)
		currentStop = leg.ArrStop
		currentMins = leg.ArrMins
		remaining--
	}

	if currentStation != p.ArrStationID {
		w, ok := tt.Transfers.MinutesBetween(currentStation, p.ArrStationID)
		if !ok {
			return Journey{}, fmt.Errorf("no closing transfer from station %d to %d", currentStation, p.ArrStationID)
		}
		legs = append(legs, FootLeg{
			DepStop: currentStop,
			DepMins: currentMins,
			ArrStop: stationStop(p, p.ArrStationID),
			ArrMins: currentMins + w,
		})
	}

	return New(legs)
}

// transportLeg builds the ride starting at connID and staying aboard
// for nStops further connections. It also returns the alighting stop
// id, which the caller needs to continue the chain.
func transportLeg(p *router.Profile, connID, nStops int) (TransportLeg, int) {
	tt := p.Timetable
	conns := p.Day.Connections

	var inter []IntermediateStop
	cur := connID
	for k := 0; k < nStops; k++ {
		next := conns.NextConnectionID(cur)
		inter = append(inter, IntermediateStop{
			Stop:    stopOf(p, conns.ArrStopID(cur)),
			ArrMins: conns.ArrMins(cur),
			DepMins: conns.DepMins(next),
		})
		cur = next
	}

	tripID := conns.TripID(connID)
	routeID := p.Day.Trips.RouteID(tripID)
	return TransportLeg{
		DepStop:      stopOf(p, conns.DepStopID(connID)),
		DepMins:      conns.DepMins(connID),
		ArrStop:      stopOf(p, conns.ArrStopID(cur)),
		ArrMins:      conns.ArrMins(cur),
		Intermediate: inter,
		Vehicle:      tt.Routes.Kind(routeID),
		RouteName:    tt.Routes.Name(routeID),
		Destination:  p.Day.Trips.Destination(tripID),
	}, conns.ArrStopID(cur)
}

// stopOf resolves a stop id into a Stop value.
func stopOf(p *router.Profile, stopID int) Stop {
	tt := p.Timetable
	stationID := tt.StationIDOf(stopID)
	s := Stop{
		StationName: tt.Stations.Name(stationID),
		Lon:         tt.Stations.Longitude(stationID),
		Lat:         tt.Stations.Latitude(stationID),
	}
	if name, ok := tt.PlatformNameOf(stopID); ok {
		s.PlatformName = name
	}
	return s
}

// stationStop resolves a station id into a Stop value.
func stationStop(p *router.Profile, stationID int) Stop {
	return stopOf(p, stationID)
}
