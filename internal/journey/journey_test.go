package journey

import (
	"testing"

	"github.com/atlas-transit/horizon/internal/timetable"
)

func stop(name string) Stop { return Stop{StationName: name} }

func TestNewRejectsEmptyJourney(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New accepted an empty journey")
	}
}

func TestNewRejectsNonAlternatingLegs(t *testing.T) {
	a, b, c := stop("A"), stop("B"), stop("C")
	_, err := New([]Leg{
		TransportLeg{DepStop: a, DepMins: 600, ArrStop: b, ArrMins: 610, Vehicle: timetable.VehicleBus},
		TransportLeg{DepStop: b, DepMins: 615, ArrStop: c, ArrMins: 625, Vehicle: timetable.VehicleBus},
	})
	if err == nil {
		t.Fatal("New accepted two consecutive transport legs")
	}
}

func TestNewRejectsTimeTravel(t *testing.T) {
	a, b := stop("A"), stop("B")
	if _, err := New([]Leg{TransportLeg{DepStop: a, DepMins: 610, ArrStop: b, ArrMins: 600}}); err == nil {
		t.Fatal("New accepted a leg arriving before it departs")
	}
	_, err := New([]Leg{
		TransportLeg{DepStop: a, DepMins: 600, ArrStop: b, ArrMins: 610},
		FootLeg{DepStop: b, DepMins: 605, ArrStop: b, ArrMins: 607},
	})
	if err == nil {
		t.Fatal("New accepted a leg departing before the previous one arrives")
	}
}

func TestNewRejectsDiscontinuousStops(t *testing.T) {
	a, b, c := stop("A"), stop("B"), stop("C")
	_, err := New([]Leg{
		TransportLeg{DepStop: a, DepMins: 600, ArrStop: b, ArrMins: 610},
		FootLeg{DepStop: c, DepMins: 610, ArrStop: c, ArrMins: 612},
	})
	if err == nil {
		t.Fatal("New accepted a leg departing from the wrong stop")
	}
}

func TestNewRejectsBadIntermediateTimes(t *testing.T) {
	a, b := stop("A"), stop("B")
	_, err := New([]Leg{TransportLeg{
		DepStop: a, DepMins: 600, ArrStop: b, ArrMins: 630,
		Intermediate: []IntermediateStop{{Stop: stop("M"), ArrMins: 615, DepMins: 610}},
	}})
	if err == nil {
		t.Fatal("New accepted an intermediate stop departing before arriving")
	}
}

func TestJourneyAccessors(t *testing.T) {
	a, b, c := stop("A"), stop("B"), stop("C")
	j, err := New([]Leg{
		TransportLeg{DepStop: a, DepMins: 600, ArrStop: b, ArrMins: 610},
		FootLeg{DepStop: b, DepMins: 610, ArrStop: c, ArrMins: 612},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if j.DepStop() != a || j.DepMins() != 600 {
		t.Errorf("departure = %v at %d", j.DepStop(), j.DepMins())
	}
	if j.ArrStop() != c || j.ArrMins() != 612 {
		t.Errorf("arrival = %v at %d", j.ArrStop(), j.ArrMins())
	}
	if j.Duration() != 12 {
		t.Errorf("Duration() = %d", j.Duration())
	}
	if j.Changes() != 0 {
		t.Errorf("Changes() = %d", j.Changes())
	}
}

func TestChangesCountsTransportLegs(t *testing.T) {
	a, b, c := stop("A"), stop("B"), stop("C")
	j, err := New([]Leg{
		TransportLeg{DepStop: a, DepMins: 600, ArrStop: b, ArrMins: 610},
		FootLeg{DepStop: b, DepMins: 610, ArrStop: b, ArrMins: 612},
		TransportLeg{DepStop: b, DepMins: 615, ArrStop: c, ArrMins: 625},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if j.Changes() != 1 {
		t.Errorf("Changes() = %d, want 1", j.Changes())
	}

	walk, err := New([]Leg{FootLeg{DepStop: a, DepMins: 0, ArrStop: b, ArrMins: 7}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if walk.Changes() != 0 {
		t.Errorf("pure walk Changes() = %d, want 0", walk.Changes())
	}
}

func TestFootLegIsTransfer(t *testing.T) {
	within := FootLeg{
		DepStop: Stop{StationName: "Renens VD, gare"},
		ArrStop: Stop{StationName: "Renens VD, gare", PlatformName: "4"},
	}
	if !within.IsTransfer() {
		t.Error("walk within one station is not reported as a transfer")
	}
	between := FootLeg{DepStop: stop("A"), ArrStop: stop("B")}
	if between.IsTransfer() {
		t.Error("walk between stations reported as a transfer")
	}
}
