// Package timetable provides read-only, typed access to a binary
// timetable: stations, platforms, routes, transfers, and the per-day
// trips and connections the router scans.
//
// Every table is a flat array of fixed-size big-endian records inside
// one byte buffer, normally a memory-mapped file. The typed views do no
// up-front decoding; each accessor is a constant-time load at
// i*recordSize + fieldOffset, so a scan over connections touches memory
// strictly in order.
package timetable

import (
	"encoding/binary"
	"fmt"
)

type fieldKind int

const (
	fieldU8 fieldKind = iota
	fieldU16
	fieldS32
)

var fieldWidth = [...]int{fieldU8: 1, fieldU16: 2, fieldS32: 4}

// structure describes one record layout: a fixed sequence of 1-, 2- and
// 4-byte big-endian fields.
type structure struct {
	kinds   []fieldKind
	offsets []int
	size    int
}

func newStructure(kinds ...fieldKind) structure {
	s := structure{kinds: kinds, offsets: make([]int, len(kinds))}
	for i, k := range kinds {
		s.offsets[i] = s.size
		s.size += fieldWidth[k]
	}
	return s
}

// view binds a record layout to a byte buffer. Out-of-range record or
// field indexes fail with the usual bounds panic.
type view struct {
	structure
	data []byte
}

func newView(s structure, data []byte, what string) (view, error) {
	if len(data)%s.size != 0 {
		return view{}, fmt.Errorf("%s: %d bytes is not a multiple of the %d-byte record", what, len(data), s.size)
	}
	return view{structure: s, data: data}, nil
}

func (v view) count() int { return len(v.data) / v.size }

func (v view) u8(field, i int) int {
	return int(v.data[i*v.size+v.offsets[field]])
}

func (v view) u16(field, i int) int {
	return int(binary.BigEndian.Uint16(v.data[i*v.size+v.offsets[field]:]))
}

func (v view) s32(field, i int) int32 {
	return int32(binary.BigEndian.Uint32(v.data[i*v.size+v.offsets[field]:]))
}
