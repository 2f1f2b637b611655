package main

import (
	"log"

	"github.com/atlas-transit/horizon/internal/timetable"
)

// openTimetable maps the store and logs a startup summary so operators
// can sanity-check what the server is about to serve.
func openTimetable(dir string) (*timetable.Timetable, error) {
	tt, err := timetable.Open(dir)
	if err != nil {
		return nil, err
	}
	log.Printf("timetable %s: %d stations, %d platforms, %d routes, %d transfers, %d aliases",
		dir, tt.Stations.Size(), tt.Platforms.Size(), tt.Routes.Size(), tt.Transfers.Size(), tt.Aliases.Size())
	return tt, nil
}
