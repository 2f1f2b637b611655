// Command gen-timetable writes a synthetic binary timetable directory
// for development and benchmarking. The network is a ring of stations
// with walking transfers between neighbors and trips running both ways
// around the ring all day.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/atlas-transit/horizon/internal/fsutil"
	"github.com/atlas-transit/horizon/internal/timetable"
	"github.com/atlas-transit/horizon/internal/timetable/ttgen"
	"github.com/atlas-transit/horizon/internal/timeutil"
)

var (
	output   = flag.String("o", "sample-timetable", "output directory")
	date     = flag.String("date", "2025-03-14", "travel day (YYYY-MM-DD)")
	stations = flag.Int("stations", 12, "number of stations on the ring")
	trips    = flag.Int("trips", 60, "number of trips per direction")
	seed     = flag.Int64("seed", 1, "random seed")
)

func main() {
	flag.Parse()

	if _, err := timeutil.ParseDate(*date); err != nil {
		log.Fatal(err)
	}
	if *stations < 3 {
		log.Fatalf("need at least 3 stations, got %d", *stations)
	}

	rng := rand.New(rand.NewSource(*seed))
	b := ttgen.NewBuilder()

	ids := make([]int, *stations)
	for i := range ids {
		// Spread the ring around a rough city-sized bounding box.
		lon := 6.56 + 0.04*float64(i%4) + rng.Float64()*0.01
		lat := 46.51 + 0.03*float64(i/4) + rng.Float64()*0.01
		ids[i] = b.AddStation(fmt.Sprintf("Station %02d", i), lon, lat)
	}
	for i, id := range ids {
		b.AddTransfer(id, id, 2)
		next := ids[(i+1)%len(ids)]
		w := 5 + rng.Intn(10)
		b.AddTransfer(id, next, w)
		b.AddTransfer(next, id, w)
	}

	clockwise := b.AddRoute("R1", timetable.VehicleBus)
	counter := b.AddRoute("R2", timetable.VehicleBus)

	day := b.Day(*date)
	addRingTrips(day, rng, ids, clockwise, *trips, false)
	addRingTrips(day, rng, ids, counter, *trips, true)

	if err := b.WriteDir(fsutil.OSFileSystem{}, *output); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s: %d stations, %d trips on %s", *output, *stations, 2**trips, *date)
}

// addRingTrips lays n trips around the ring, departures spread over the
// service day, each trip running once around the ring and ending back at
// its first station.
func addRingTrips(day *ttgen.DayBuilder, rng *rand.Rand, ids []int, routeID, n int, reverse bool) {
	for k := 0; k < n; k++ {
		dep := 300 + k*(1200/n) // between 05:00 and 01:00
		stops := make([]ttgen.TripStop, 0, len(ids)+1)
		t := dep
		for i := 0; i <= len(ids); i++ {
			idx := i % len(ids)
			if reverse {
				idx = (len(ids) - i) % len(ids)
			}
			stop := ttgen.TripStop{StopID: ids[idx], ArrMins: t}
			t += 1 + rng.Intn(2)
			stop.DepMins = t
			stops = append(stops, stop)
			t += 3 + rng.Intn(5)
		}
		dest := "Station 00"
		if reverse {
			dest = fmt.Sprintf("Station %02d", 1)
		}
		if _, err := day.AddTrip(routeID, dest, stops); err != nil {
			log.Fatal(err)
		}
	}
}
