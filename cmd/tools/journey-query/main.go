// Command journey-query runs one journey query against a timetable
// directory and prints the results as plain text: a summary line per
// journey, then one line per leg.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/atlas-transit/horizon/internal/journey"
	"github.com/atlas-transit/horizon/internal/router"
	"github.com/atlas-transit/horizon/internal/timetable"
	"github.com/atlas-transit/horizon/internal/timeutil"
)

var (
	timetableDir = flag.String("timetable", "./timetable", "timetable directory")
	from         = flag.String("from", "", "departure station name")
	to           = flag.String("to", "", "arrival station name")
	date         = flag.String("date", "", "travel day (YYYY-MM-DD)")
	depTime      = flag.String("time", "00:00", "earliest departure (HH:MM)")
)

func main() {
	flag.Parse()
	if *from == "" || *to == "" || *date == "" {
		flag.Usage()
		os.Exit(2)
	}

	day, err := timeutil.ParseDate(*date)
	if err != nil {
		log.Fatal(err)
	}
	depMins, err := timeutil.ParseMinutes(*depTime)
	if err != nil {
		log.Fatal(err)
	}

	tt, err := timetable.Open(*timetableDir)
	if err != nil {
		log.Fatal(err)
	}
	defer tt.Close()

	fromID, err := stationByName(tt, *from)
	if err != nil {
		log.Fatal(err)
	}
	toID, err := stationByName(tt, *to)
	if err != nil {
		log.Fatal(err)
	}

	p, err := router.BuildProfile(tt, day, toID)
	if err != nil {
		log.Fatal(err)
	}
	journeys, err := journey.Extract(p, fromID)
	if err != nil {
		log.Fatal(err)
	}

	printed := 0
	for _, j := range journeys {
		if j.DepMins() < depMins {
			continue
		}
		printed++
		fmt.Printf("%s -> %s  (%d min, %d changes)\n",
			timeutil.FormatMinutes(j.DepMins()), timeutil.FormatMinutes(j.ArrMins()),
			j.Duration(), j.Changes())
		for _, l := range j.Legs() {
			switch leg := l.(type) {
			case journey.TransportLeg:
				fmt.Printf("  %s %s  %s %s -> %s %s (%d stops)\n",
					leg.Vehicle, leg.RouteName,
					timeutil.FormatMinutes(leg.DepMins), stopName(leg.DepStop),
					timeutil.FormatMinutes(leg.ArrMins), stopName(leg.ArrStop),
					len(leg.Intermediate))
			case journey.FootLeg:
				kind := "walk"
				if leg.IsTransfer() {
					kind = "transfer"
				}
				fmt.Printf("  %s  %s %s -> %s %s\n", kind,
					timeutil.FormatMinutes(leg.DepMins), stopName(leg.DepStop),
					timeutil.FormatMinutes(leg.ArrMins), stopName(leg.ArrStop))
			}
		}
	}
	if printed == 0 {
		fmt.Println("no journeys")
	}
}

func stationByName(tt *timetable.Timetable, name string) (int, error) {
	for id := 0; id < tt.Stations.Size(); id++ {
		if tt.Stations.Name(id) == name {
			return id, nil
		}
	}
	for i := 0; i < tt.Aliases.Size(); i++ {
		if tt.Aliases.Alias(i) == name {
			return stationByName(tt, tt.Aliases.StationName(i))
		}
	}
	return 0, fmt.Errorf("unknown station %q", name)
}

func stopName(s journey.Stop) string {
	if s.PlatformName != "" {
		return s.StationName + " (pl. " + s.PlatformName + ")"
	}
	return s.StationName
}
