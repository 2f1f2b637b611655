// Package journey defines the value objects a routing query produces —
// journeys made of transport and foot legs — and the extractor that
// reconstructs them from a profile.
package journey

import (
	"fmt"

	"github.com/atlas-transit/horizon/internal/timetable"
)

// Stop identifies a boarding or alighting point. PlatformName is empty
// when the stop is a whole station; coordinates are the station's.
type Stop struct {
	StationName  string
	PlatformName string
	Lon          float64
	Lat          float64
}

// IntermediateStop is a stop a transport leg passes through without the
// traveler alighting.
type IntermediateStop struct {
	Stop    Stop
	ArrMins int
	DepMins int
}

// Leg is one segment of a journey: either a TransportLeg or a FootLeg.
// The interface is sealed; consumers pattern-match on the two concrete
// types.
type Leg interface {
	departure() (Stop, int)
	arrival() (Stop, int)
	validate() error
}

// TransportLeg is a ride on a single trip, boarding at DepStop and
// alighting at ArrStop.
type TransportLeg struct {
	DepStop      Stop
	DepMins      int
	ArrStop      Stop
	ArrMins      int
	Intermediate []IntermediateStop
	Vehicle      timetable.Vehicle
	RouteName    string
	Destination  string
}

func (l TransportLeg) departure() (Stop, int) { return l.DepStop, l.DepMins }
func (l TransportLeg) arrival() (Stop, int)   { return l.ArrStop, l.ArrMins }

func (l TransportLeg) validate() error {
	if l.ArrMins < l.DepMins {
		return fmt.Errorf("transport leg arrives at %d before departing at %d", l.ArrMins, l.DepMins)
	}
	prev := l.DepMins
	for _, s := range l.Intermediate {
		if s.ArrMins < prev {
			return fmt.Errorf("intermediate stop %q arrives at %d before %d", s.Stop.StationName, s.ArrMins, prev)
		}
		if s.DepMins < s.ArrMins {
			return fmt.Errorf("intermediate stop %q departs at %d before arriving at %d", s.Stop.StationName, s.DepMins, s.ArrMins)
		}
		prev = s.DepMins
	}
	if l.ArrMins < prev {
		return fmt.Errorf("transport leg arrives at %d before its last intermediate departure %d", l.ArrMins, prev)
	}
	return nil
}

// FootLeg is a walk between two stops.
type FootLeg struct {
	DepStop Stop
	DepMins int
	ArrStop Stop
	ArrMins int
}

func (l FootLeg) departure() (Stop, int) { return l.DepStop, l.DepMins }
func (l FootLeg) arrival() (Stop, int)   { return l.ArrStop, l.ArrMins }

func (l FootLeg) validate() error {
	if l.ArrMins < l.DepMins {
		return fmt.Errorf("foot leg arrives at %d before departing at %d", l.ArrMins, l.DepMins)
	}
	return nil
}

// IsTransfer reports whether the walk stays within one station.
func (l FootLeg) IsTransfer() bool {
	return l.DepStop.StationName == l.ArrStop.StationName
}

// Journey is a non-empty sequence of legs from a departure stop to an
// arrival stop. Construct through New, which enforces the invariants.
type Journey struct {
	legs []Leg
}

// New validates and builds a journey: legs alternate between transport
// and foot, each leg departs where and no earlier than the previous one
// arrived.
func New(legs []Leg) (Journey, error) {
	if len(legs) == 0 {
		return Journey{}, fmt.Errorf("journey has no legs")
	}
	for i, l := range legs {
		if err := l.validate(); err != nil {
			return Journey{}, fmt.Errorf("leg %d: %w", i, err)
		}
		if i == 0 {
			continue
		}
		if _, prevFoot := legs[i-1].(FootLeg); prevFoot == isFoot(l) {
			return Journey{}, fmt.Errorf("legs %d and %d do not alternate transport and foot", i-1, i)
		}
		prevStop, prevMins := legs[i-1].arrival()
		depStop, depMins := l.departure()
		if depMins < prevMins {
			return Journey{}, fmt.Errorf("leg %d departs at %d before leg %d arrives at %d", i, depMins, i-1, prevMins)
		}
		if depStop != prevStop {
			return Journey{}, fmt.Errorf("leg %d departs from %q but leg %d arrives at %q",
				i, depStop.StationName, i-1, prevStop.StationName)
		}
	}
	out := Journey{legs: make([]Leg, len(legs))}
	copy(out.legs, legs)
	return out, nil
}

func isFoot(l Leg) bool {
	_, ok := l.(FootLeg)
	return ok
}

// Legs returns the journey's legs in order.
func (j Journey) Legs() []Leg { return j.legs }

// DepStop returns where the journey starts.
func (j Journey) DepStop() Stop { s, _ := j.legs[0].departure(); return s }

// DepMins returns when the journey starts.
func (j Journey) DepMins() int { _, m := j.legs[0].departure(); return m }

// ArrStop returns where the journey ends.
func (j Journey) ArrStop() Stop { s, _ := j.legs[len(j.legs)-1].arrival(); return s }

// ArrMins returns when the journey ends.
func (j Journey) ArrMins() int { _, m := j.legs[len(j.legs)-1].arrival(); return m }

// Duration returns the door-to-door time in minutes.
func (j Journey) Duration() int { return j.ArrMins() - j.DepMins() }

// Changes returns the number of vehicle changes: one less than the
// number of transport legs, and zero for a pure walk.
func (j Journey) Changes() int {
	n := 0
	for _, l := range j.legs {
		if !isFoot(l) {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}
