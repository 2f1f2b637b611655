package timetable

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// StringTable is the shared, line-indexed table every other view resolves
// its name fields against. The on-disk file is Latin-1, one string per
// line.
type StringTable struct {
	strings []string
}

// NewStringTable decodes a strings.txt buffer.
func NewStringTable(data []byte) (*StringTable, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding string table: %w", err)
	}
	lines := strings.Split(string(decoded), "\n")
	// A trailing newline produces one phantom empty entry; drop it so the
	// table size matches the line count.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &StringTable{strings: lines}, nil
}

// Size returns the number of entries.
func (t *StringTable) Size() int { return len(t.strings) }

// Get returns entry i.
func (t *StringTable) Get(i int) string { return t.strings[i] }
