// Package pareto maintains Pareto frontiers of packed criteria tuples.
//
// A frontier is an anti-chain under packed.Criteria.DominatesOrEqual: no
// member is at least as good as another on all criteria. The builder
// keeps its working set as a single []uint64 in ascending numeric order.
// Because the tuple layout aligns numeric order with dominance (see the
// packed package), an insertion splits cleanly: words below the new
// tuple's position are the only candidates that can dominate it, words
// at or above it are the only candidates it can dominate. Both checks
// stay linear, which is fine — profile frontiers hold dozens of tuples
// at most.
package pareto

import (
	"strings"

	"github.com/atlas-transit/horizon/internal/packed"
)

// Frontier is an immutable Pareto frontier. The zero value is empty.
type Frontier struct {
	items []uint64
}

// Empty is the frontier with no tuples.
var Empty = Frontier{}

// Size returns the number of tuples.
func (f Frontier) Size() int { return len(f.items) }

// ForEach calls fn for every tuple, in ascending packed order.
func (f Frontier) ForEach(fn func(packed.Criteria)) {
	for _, v := range f.items {
		fn(packed.Criteria(v))
	}
}

// Get returns the tuple with exactly the given arrival time and change
// count, if one exists.
func (f Frontier) Get(arrMins, changes int) (packed.Criteria, bool) {
	for _, v := range f.items {
		c := packed.Criteria(v)
		if c.Arr() == arrMins && c.Changes() == changes {
			return c, true
		}
	}
	return 0, false
}

func (f Frontier) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, v := range f.items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(packed.Criteria(v).String())
	}
	b.WriteString("}")
	return b.String()
}

// Builder is a mutable Pareto frontier. All tuples added to one builder
// must agree on the presence of a departure time.
type Builder struct {
	items []uint64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// IsEmpty reports whether the builder holds no tuples.
func (b *Builder) IsEmpty() bool { return len(b.items) == 0 }

// Clear removes all tuples, keeping the allocated capacity.
func (b *Builder) Clear() { b.items = b.items[:0] }

// Add inserts t unless a held tuple dominates it, and drops every held
// tuple that t dominates. Returns b for chaining.
func (b *Builder) Add(t packed.Criteria) *Builder {
	v := uint64(t)

	// Tuples numerically below v are the only ones that can dominate it.
	pos := 0
	for pos < len(b.items) && b.items[pos] < v {
		if packed.Criteria(b.items[pos]).DominatesOrEqual(t) {
			return b
		}
		pos++
	}
	// A held tuple with the same criteria (whatever its payload) already
	// covers t; the first one inserted stays.
	if pos < len(b.items) && b.items[pos]>>32 == v>>32 {
		return b
	}

	// Insert at pos, then compact away everything above it that t
	// dominates.
	n := len(b.items)
	b.items = append(b.items, 0)
	copy(b.items[pos+1:], b.items[pos:n])
	b.items[pos] = v

	dst := pos + 1
	for src := pos + 1; src < len(b.items); src++ {
		u := packed.Criteria(b.items[src])
		if !t.DominatesOrEqual(u) {
			b.items[dst] = b.items[src]
			dst++
		}
	}
	b.items = b.items[:dst]
	return b
}

// AddTuple packs (arrMins, changes, payload) and adds it.
func (b *Builder) AddTuple(arrMins, changes int, payload int32) *Builder {
	return b.Add(packed.Pack(arrMins, changes, payload))
}

// AddAll adds every tuple of o, honoring dominance.
func (b *Builder) AddAll(o *Builder) *Builder {
	for _, v := range o.items {
		b.Add(packed.Criteria(v))
	}
	return b
}

// ForEach calls fn for every held tuple, in ascending packed order.
func (b *Builder) ForEach(fn func(packed.Criteria)) {
	for _, v := range b.items {
		fn(packed.Criteria(v))
	}
}

// FullyDominates reports whether, after attaching depMins as departure
// time to each tuple of o, every such tuple is dominated by some tuple
// held by b. b must hold timed tuples and o untimed ones.
func (b *Builder) FullyDominates(o *Builder, depMins int) bool {
	for _, v := range o.items {
		timed := packed.Criteria(v).WithDep(depMins)
		if !b.dominatesTuple(timed) {
			return false
		}
	}
	return true
}

func (b *Builder) dominatesTuple(t packed.Criteria) bool {
	for _, v := range b.items {
		if packed.Criteria(v).DominatesOrEqual(t) {
			return true
		}
	}
	return false
}

// Build returns the frontier accumulated so far. The builder may keep
// being used afterwards; the frontier does not alias its storage.
func (b *Builder) Build() Frontier {
	if len(b.items) == 0 {
		return Empty
	}
	items := make([]uint64, len(b.items))
	copy(items, b.items)
	return Frontier{items: items}
}
