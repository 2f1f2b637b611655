//go:build !unix

package timetable

import "os"

// mapFile falls back to reading the whole file on platforms without
// mmap support. The buffer contract is the same; only the paging
// behavior differs.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
