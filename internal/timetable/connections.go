package timetable

import "fmt"

var connectionStructure = newStructure(fieldU16, fieldU16, fieldU16, fieldU16, fieldS32)

const (
	connDepStopID = iota
	connDepMins
	connArrStopID
	connArrMins
	connTripPacked
)

// Connections is the view over one day's connections.bin plus its
// successor table. Records are globally sorted by decreasing departure
// time; scanning them in index order is the backward pass the router
// depends on. The trip field packs the trip id in the high 24 bits and
// the position within the trip in the low 8.
type Connections struct {
	v view
	// succ holds connections-succ.bin: for each connection, the index of
	// the next connection of the same trip, circular within the trip.
	succ view
}

var succStructure = newStructure(fieldS32)

// NewConnections wraps a day's connections.bin and connections-succ.bin
// buffers.
func NewConnections(data, succData []byte) (Connections, error) {
	v, err := newView(connectionStructure, data, "connections")
	if err != nil {
		return Connections{}, err
	}
	succ, err := newView(succStructure, succData, "connection successors")
	if err != nil {
		return Connections{}, err
	}
	if v.count() != succ.count() {
		return Connections{}, fmt.Errorf("connections: %d records but %d successors", v.count(), succ.count())
	}
	return Connections{v: v, succ: succ}, nil
}

// Size returns the number of connections.
func (c Connections) Size() int { return c.v.count() }

// DepStopID returns the stop the connection leaves from.
func (c Connections) DepStopID(i int) int { return c.v.u16(connDepStopID, i) }

// DepMins returns the departure time.
func (c Connections) DepMins(i int) int { return c.v.u16(connDepMins, i) }

// ArrStopID returns the stop the connection arrives at.
func (c Connections) ArrStopID(i int) int { return c.v.u16(connArrStopID, i) }

// ArrMins returns the arrival time.
func (c Connections) ArrMins(i int) int { return c.v.u16(connArrMins, i) }

// TripID returns the trip the connection belongs to.
func (c Connections) TripID(i int) int { return int(uint32(c.v.s32(connTripPacked, i)) >> 8) }

// TripPos returns the zero-based position of the connection within its
// trip.
func (c Connections) TripPos(i int) int { return int(uint32(c.v.s32(connTripPacked, i)) & 0xff) }

// NextConnectionID returns the index of the following connection of the
// same trip, wrapping to the trip's first connection after the last.
func (c Connections) NextConnectionID(i int) int { return int(c.succ.s32(0, i)) }
