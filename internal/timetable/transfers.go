package timetable

import (
	"fmt"

	"github.com/atlas-transit/horizon/internal/packed"
)

var transferStructure = newStructure(fieldU16, fieldU16, fieldU8)

const (
	transferDepStationID = iota
	transferArrStationID
	transferMinutes
)

// Transfers is the view over transfers.bin, the walking edges between
// stations. The file is globally sorted by arrival station, so all
// transfers reaching one station form a contiguous run; the constructor
// indexes those runs once so the router can iterate them without
// searching.
type Transfers struct {
	v view
	// arrivingAt[stationID] is the packed record range of transfers
	// whose arrival station is stationID; empty for stations nothing
	// walks to.
	arrivingAt []packed.Range
}

// NewTransfers wraps a transfers.bin buffer. stationCount sizes the
// arrival index and bounds the arrival station ids the records may
// carry; departure station ids are not checked.
func NewTransfers(data []byte, stationCount int) (Transfers, error) {
	v, err := newView(transferStructure, data, "transfers")
	if err != nil {
		return Transfers{}, err
	}
	t := Transfers{v: v, arrivingAt: make([]packed.Range, stationCount)}

	// One pass over the arrStationID-sorted records, emitting one range
	// per distinct arrival station.
	n := v.count()
	for start := 0; start < n; {
		arr := v.u16(transferArrStationID, start)
		if arr >= stationCount {
			return Transfers{}, fmt.Errorf("transfers: record %d arrives at station %d of %d", start, arr, stationCount)
		}
		end := start + 1
		for end < n && v.u16(transferArrStationID, end) == arr {
			end++
		}
		t.arrivingAt[arr] = packed.PackRange(start, end)
		start = end
	}
	return t, nil
}

// Size returns the number of transfers.
func (t Transfers) Size() int { return t.v.count() }

// DepStationID returns the station the transfer leaves from.
func (t Transfers) DepStationID(i int) int { return t.v.u16(transferDepStationID, i) }

// ArrStationID returns the station the transfer walks to.
func (t Transfers) ArrStationID(i int) int { return t.v.u16(transferArrStationID, i) }

// Minutes returns the walking time.
func (t Transfers) Minutes(i int) int { return t.v.u8(transferMinutes, i) }

// ArrivingAt returns the record range of transfers reaching stationID.
// A station nothing walks to gets an empty range.
func (t Transfers) ArrivingAt(stationID int) packed.Range { return t.arrivingAt[stationID] }

// MinutesBetween returns the walking time from depStationID to
// arrStationID, or false if no such transfer exists.
func (t Transfers) MinutesBetween(depStationID, arrStationID int) (int, bool) {
	r := t.arrivingAt[arrStationID]
	for i := r.Start(); i < r.End(); i++ {
		if t.v.u16(transferDepStationID, i) == depStationID {
			return t.v.u8(transferMinutes, i), true
		}
	}
	return 0, false
}
