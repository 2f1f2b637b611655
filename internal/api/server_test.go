package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-transit/horizon/internal/querylog"
	"github.com/atlas-transit/horizon/internal/timetable"
	"github.com/atlas-transit/horizon/internal/timetable/ttgen"
)

const testDate = "2025-03-14"

// testTimetable builds A --m1--> B with an alias for A and a walk A->B.
func testTimetable(t *testing.T) *timetable.Timetable {
	t.Helper()
	b := ttgen.NewBuilder()
	a := b.AddStation("Ecublens VD, EPFL", 6.566141, 46.522196)
	dest := b.AddStation("Renens VD, gare", 6.578519, 46.537619)
	b.AddAlias("EPFL", "Ecublens VD, EPFL")
	r := b.AddRoute("m1", timetable.VehicleMetro)
	b.AddTransfer(a, dest, 25)
	if _, err := b.Day(testDate).AddTrip(r, "Renens VD, gare", []ttgen.TripStop{
		{StopID: a, DepMins: 600},
		{StopID: dest, ArrMins: 612},
	}); err != nil {
		t.Fatal(err)
	}
	bufs, err := b.Build()
	require.NoError(t, err)
	tt, err := timetable.NewFromBuffers(bufs)
	require.NoError(t, err)
	return tt
}

func newTestServer(t *testing.T, queries *querylog.DB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(LoggingMiddleware(NewServer(testTimetable(t), queries, 0).ServeMux()))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	var body map[string]string
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/healthz", &body))
	require.Equal(t, "ok", body["status"])
}

func TestStations(t *testing.T) {
	srv := newTestServer(t, nil)
	var stations []StationAPI
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/stations", &stations))
	require.Len(t, stations, 2)
	require.Equal(t, "Ecublens VD, EPFL", stations[0].Name)
	require.InDelta(t, 6.566141, stations[0].Lon, 1e-6)
}

func TestJourneys(t *testing.T) {
	srv := newTestServer(t, nil)
	var journeys []JourneyAPI
	status := get(t, srv.URL+"/api/journeys?from=Ecublens+VD,+EPFL&to=Renens+VD,+gare&date="+testDate+"&time=09:00", &journeys)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, journeys, 2) // the ride and the re-timed walk

	var ride JourneyAPI
	for _, j := range journeys {
		if j.Legs[0].Type == "transport" {
			ride = j
		}
	}
	require.NotEmpty(t, ride.Legs)
	require.Equal(t, "10:00", ride.Dep)
	require.Equal(t, "10:12", ride.Arr)
	require.Equal(t, 0, ride.Changes)
	require.Equal(t, "METRO", ride.Legs[0].Vehicle)
	require.Equal(t, "m1", ride.Legs[0].Route)

	// The walk is re-timed to the requested departure.
	var walk JourneyAPI
	for _, j := range journeys {
		if j.Legs[0].Type == "foot" {
			walk = j
		}
	}
	require.Equal(t, "09:00", walk.Dep)
	require.Equal(t, "09:25", walk.Arr)
}

func TestJourneysAliasAndFilters(t *testing.T) {
	srv := newTestServer(t, nil)

	// The alias resolves to the same station.
	var journeys []JourneyAPI
	status := get(t, srv.URL+"/api/journeys?from=EPFL&to=Renens+VD,+gare&date="+testDate+"&time=09:00", &journeys)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, journeys, 2)

	// Asking after the last departure leaves only the walk.
	journeys = nil
	status = get(t, srv.URL+"/api/journeys?from=EPFL&to=Renens+VD,+gare&date="+testDate+"&time=11:00", &journeys)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, journeys, 1)
	require.Equal(t, "foot", journeys[0].Legs[0].Type)
}

func TestJourneysErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusNotFound,
		get(t, srv.URL+"/api/journeys?from=Nowhere&to=Renens+VD,+gare&date="+testDate, nil))
	require.Equal(t, http.StatusBadRequest,
		get(t, srv.URL+"/api/journeys?from=EPFL&to=Renens+VD,+gare&date=14.03.2025", nil))
	require.Equal(t, http.StatusNotFound,
		get(t, srv.URL+"/api/journeys?from=EPFL&to=Renens+VD,+gare&date=2025-03-15", nil))
}

func TestStatsEndToEnd(t *testing.T) {
	queries, err := querylog.Open(filepath.Join(t.TempDir(), "queries.db"))
	require.NoError(t, err)
	defer queries.Close()

	srv := newTestServer(t, queries)
	require.Equal(t, http.StatusOK,
		get(t, srv.URL+"/api/journeys?from=EPFL&to=Renens+VD,+gare&date="+testDate+"&time=09:00", nil))

	var stats querylog.Stats
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/api/stats", &stats))
	require.Equal(t, 1, stats.Count)
	require.InDelta(t, 2.0, stats.AvgJourneys, 1e-9)
}

func TestStatsDisabled(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/stats", nil))
}
