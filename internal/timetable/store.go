package timetable

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/atlas-transit/horizon/internal/fsutil"
	"github.com/atlas-transit/horizon/internal/timeutil"
)

// Open memory-maps the timetable at dir. The fixed tables are mapped
// immediately; each day's tables are mapped on first use and unmapped
// when the day cache moves on. The returned timetable stays valid until
// Close.
func Open(dir string) (*Timetable, error) {
	fsys := fsutil.OSFileSystem{}
	if err := fsutil.CheckTimetableDir(fsys, dir); err != nil {
		return nil, err
	}

	var b Buffers
	var closers []func() error
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{"strings.txt", &b.Strings},
		{"stations.bin", &b.Stations},
		{"station-aliases.bin", &b.StationAliases},
		{"platforms.bin", &b.Platforms},
		{"routes.bin", &b.Routes},
		{"transfers.bin", &b.Transfers},
	} {
		data, closer, err := mapFile(filepath.Join(dir, f.name))
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, fmt.Errorf("mapping %s: %w", f.name, err)
		}
		*f.dst = data
		closers = append(closers, closer)
	}

	t, err := assemble(b, nil)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, err
	}
	t.closers = closers

	// dayClosers tracks the mappings of the currently cached day; they
	// are released when another day replaces it.
	var dayClosers []func() error
	t.loadDay = func(date time.Time) (Trips, Connections, error) {
		dayDir := filepath.Join(dir, timeutil.FormatDate(date))
		if err := fsutil.CheckDayDir(fsys, dayDir); err != nil {
			return Trips{}, Connections{}, err
		}

		var db DayBuffers
		var opened []func() error
		for _, f := range []struct {
			name string
			dst  *[]byte
		}{
			{"trips.bin", &db.Trips},
			{"connections.bin", &db.Connections},
			{"connections-succ.bin", &db.ConnectionSuccessors},
		} {
			data, closer, err := mapFile(filepath.Join(dayDir, f.name))
			if err != nil {
				for _, c := range opened {
					c()
				}
				return Trips{}, Connections{}, fmt.Errorf("mapping %s: %w", filepath.Join(timeutil.FormatDate(date), f.name), err)
			}
			*f.dst = data
			opened = append(opened, closer)
		}

		trips, conns, err := t.assembleDay(db)
		if err != nil {
			for _, c := range opened {
				c()
			}
			return Trips{}, Connections{}, err
		}

		for _, c := range dayClosers {
			c()
		}
		dayClosers = opened
		return trips, conns, nil
	}
	t.closers = append(t.closers, func() error {
		var first error
		for _, c := range dayClosers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		dayClosers = nil
		return first
	})
	return t, nil
}
