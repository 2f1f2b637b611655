// Package packed implements the two bit-level codecs the routing core is
// built on: a 32-bit (start, length) range and a 64-bit multi-criteria
// tuple.
//
// Both codecs exist so the router's inner loop can operate on plain
// machine words. A Criteria value carries an arrival time, a change
// count, an optional departure time and a 32-bit payload, arranged so
// that the unsigned numeric order of the word lines up with Pareto
// dominance on (departure, arrival, changes): the departure field is
// stored complemented, which makes "departs later" and "arrives earlier"
// both push the word downwards. The pareto package relies on this to
// keep its working set as a sorted []uint64.
//
// Domain violations (an arrival outside the representable window, a
// change count past 127, reading a departure that was never set) are
// caller bugs, not recoverable conditions; the codec panics on them the
// same way a slice does on an out-of-range index.
package packed

import "fmt"

// Range packs a half-open [start, end) index range into one 32-bit word:
// start in the high 24 bits, length in the low 8. It is used by the
// timetable's transfer index, where every per-station range is short.
type Range uint32

const (
	maxRangeStart  = 1 << 24
	maxRangeLength = 255
)

// PackRange encodes [start, end). start must fit in 24 bits and the
// length in 8.
func PackRange(start, end int) Range {
	length := end - start
	if start < 0 || start >= maxRangeStart {
		panic(fmt.Sprintf("packed: range start %d out of [0, 2^24)", start))
	}
	if length < 0 || length > maxRangeLength {
		panic(fmt.Sprintf("packed: range length %d out of [0, 255]", length))
	}
	return Range(uint32(start)<<8 | uint32(length))
}

// Start returns the inclusive start index.
func (r Range) Start() int { return int(r >> 8) }

// Length returns the number of indices covered.
func (r Range) Length() int { return int(r & 0xff) }

// End returns the exclusive end index.
func (r Range) End() int { return r.Start() + r.Length() }

// Criteria is the packed optimization tuple. Bit layout, low to high:
//
//	[0, 32)  payload (application defined, opaque to the codec)
//	[32, 39) change count, 0..127
//	[39, 51) arrival minutes, biased by -TimeOrigin
//	[51, 63) departure minutes, complemented; all-zero means "no
//	         departure time"
//
// Times are minutes relative to the midnight of the travel day.
// TimeOrigin shifts the window so that stops reached late the previous
// evening remain representable.
type Criteria uint64

// TimeOrigin is the smallest representable time, in minutes relative to
// midnight of the travel day.
const TimeOrigin = -240

const (
	// MaxArrMins is the largest arrival accepted by Pack.
	MaxArrMins = 2879
	// MaxDepMins is the largest departure accepted by WithDep.
	MaxDepMins = 3119
	// MaxChanges is the largest change count a tuple can carry.
	MaxChanges = 127

	depComplement = 4095

	payloadBits = 32
	changesBits = 7
	arrBits     = 12
	depBits     = 12

	changesShift = payloadBits
	arrShift     = changesShift + changesBits
	depShift     = arrShift + arrBits

	changesMask = (1 << changesBits) - 1
	arrMask     = (1 << arrBits) - 1
	depMask     = (1 << depBits) - 1
)

// Pack builds a tuple without a departure time.
func Pack(arrMins, changes int, payload int32) Criteria {
	if arrMins < TimeOrigin || arrMins > MaxArrMins {
		panic(fmt.Sprintf("packed: arrival %d out of [%d, %d]", arrMins, TimeOrigin, MaxArrMins))
	}
	if changes < 0 || changes > MaxChanges {
		panic(fmt.Sprintf("packed: change count %d out of [0, %d]", changes, MaxChanges))
	}
	return Criteria(uint64(uint32(arrMins-TimeOrigin))<<arrShift |
		uint64(changes)<<changesShift |
		uint64(uint32(payload)))
}

// HasDep reports whether the tuple carries a departure time.
func (c Criteria) HasDep() bool { return c>>depShift != 0 }

// Dep returns the departure time. The tuple must carry one.
func (c Criteria) Dep() int {
	raw := int(c >> depShift & depMask)
	if raw == 0 {
		panic("packed: tuple has no departure time")
	}
	return depComplement - raw + TimeOrigin
}

// Arr returns the arrival time.
func (c Criteria) Arr() int { return int(c>>arrShift&arrMask) + TimeOrigin }

// Changes returns the change count.
func (c Criteria) Changes() int { return int(c >> changesShift & changesMask) }

// Payload returns the opaque 32-bit payload.
func (c Criteria) Payload() int32 { return int32(uint32(c)) }

// WithDep returns a copy of c carrying the given departure time.
func (c Criteria) WithDep(depMins int) Criteria {
	if depMins < TimeOrigin || depMins > MaxDepMins {
		panic(fmt.Sprintf("packed: departure %d out of [%d, %d]", depMins, TimeOrigin, MaxDepMins))
	}
	raw := uint64(depComplement - (depMins - TimeOrigin))
	return c&^(Criteria(depMask)<<depShift) | Criteria(raw<<depShift)
}

// WithoutDep returns a copy of c with the departure time cleared.
func (c Criteria) WithoutDep() Criteria {
	return c &^ (Criteria(depMask) << depShift)
}

// WithAdditionalChange returns a copy of c with one more change.
func (c Criteria) WithAdditionalChange() Criteria {
	if c.Changes() == MaxChanges {
		panic("packed: change count already at maximum")
	}
	return c + 1<<changesShift
}

// WithPayload returns a copy of c carrying the given payload.
func (c Criteria) WithPayload(payload int32) Criteria {
	return c&^Criteria(1<<payloadBits-1) | Criteria(uint32(payload))
}

// DominatesOrEqual reports whether c is at least as good as o on every
// criterion. Both tuples must agree on the presence of a departure time;
// comparing a timed tuple against an untimed one is a caller bug.
//
// The payload takes no part in the comparison.
func (c Criteria) DominatesOrEqual(o Criteria) bool {
	if c.HasDep() != o.HasDep() {
		panic("packed: dominance between tuples with and without departure time")
	}
	// The departure field is complemented, so "departs no earlier" is a
	// plain <= on the raw field, arrival and changes likewise.
	if c>>depShift&depMask > o>>depShift&depMask {
		return false
	}
	if c>>arrShift&arrMask > o>>arrShift&arrMask {
		return false
	}
	return c>>changesShift&changesMask <= o>>changesShift&changesMask
}

func (c Criteria) String() string {
	dep := "-"
	if c.HasDep() {
		dep = fmt.Sprintf("%d", c.Dep())
	}
	return fmt.Sprintf("(dep=%s arr=%d ch=%d payload=%#x)", dep, c.Arr(), c.Changes(), uint32(c.Payload()))
}
