// Package api serves the journey-planning HTTP API. The routing core is
// single-threaded by design (one profile build at a time, one warm day
// in the timetable cache); the server funnels all routing work through
// one mutex and keeps the handlers themselves stateless.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atlas-transit/horizon/internal/journey"
	"github.com/atlas-transit/horizon/internal/querylog"
	"github.com/atlas-transit/horizon/internal/router"
	"github.com/atlas-transit/horizon/internal/timetable"
	"github.com/atlas-transit/horizon/internal/timeutil"
	"github.com/atlas-transit/horizon/internal/version"
)

// ANSI escape codes for the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server holds the timetable and the optional query log.
type Server struct {
	tt  *timetable.Timetable
	log *querylog.DB // nil disables query logging

	// maxJourneys caps the journeys returned per request; 0 is no cap.
	maxJourneys int

	// routing serializes profile construction: the day cache and the
	// profile builders are not safe for concurrent use.
	routing sync.Mutex

	// stationIndex resolves exact station names (and aliases) to ids.
	stationIndex map[string]int

	mux *http.ServeMux
}

// NewServer builds a server over an opened timetable. queries may be
// nil to disable the query log.
func NewServer(tt *timetable.Timetable, queries *querylog.DB, maxJourneys int) *Server {
	s := &Server{
		tt:           tt,
		log:          queries,
		maxJourneys:  maxJourneys,
		stationIndex: make(map[string]int, tt.Stations.Size()),
	}
	// Exact-name lookups only; fuzzy search belongs to a front end.
	for id := 0; id < tt.Stations.Size(); id++ {
		s.stationIndex[tt.Stations.Name(id)] = id
	}
	for i := 0; i < tt.Aliases.Size(); i++ {
		if id, ok := s.stationIndex[tt.Aliases.StationName(i)]; ok {
			s.stationIndex[tt.Aliases.Alias(i)] = id
		}
	}
	return s
}

// ServeMux returns the handler mux, building it on first use.
func (s *Server) ServeMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/stations", s.handleStations)
	s.mux.HandleFunc("/api/journeys", s.handleJourneys)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	return s.mux
}

// Start serves the API on addr until the listener fails.
func (s *Server) Start(addr string) error {
	log.Printf("journey API listening on %s", addr)
	return http.ListenAndServe(addr, LoggingMiddleware(s.ServeMux()))
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)

		portPrefix := ""
		if host := r.Host; host != "" {
			if _, p, err := net.SplitHostPort(host); err == nil {
				portPrefix = ":" + p
			}
		}
		log.Printf(
			"[%s] %s %s%s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, portPrefix, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Printf("failed to encode json error response: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// StationAPI is one station in the /api/stations listing.
type StationAPI struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stations := make([]StationAPI, s.tt.Stations.Size())
	for id := range stations {
		stations[id] = StationAPI{
			ID:   id,
			Name: s.tt.Stations.Name(id),
			Lon:  s.tt.Stations.Longitude(id),
			Lat:  s.tt.Stations.Latitude(id),
		}
	}
	s.writeJSON(w, stations)
}

// StopAPI mirrors journey.Stop.
type StopAPI struct {
	Station  string  `json:"station"`
	Platform string  `json:"platform,omitempty"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
}

// IntermediateStopAPI is one passed-through stop of a transport leg.
type IntermediateStopAPI struct {
	Stop StopAPI `json:"stop"`
	Arr  string  `json:"arr"`
	Dep  string  `json:"dep"`
}

// LegAPI is one journey leg; Type is "transport" or "foot".
type LegAPI struct {
	Type         string                `json:"type"`
	DepStop      StopAPI               `json:"dep_stop"`
	Dep          string                `json:"dep"`
	ArrStop      StopAPI               `json:"arr_stop"`
	Arr          string                `json:"arr"`
	Intermediate []IntermediateStopAPI `json:"intermediate,omitempty"`
	Vehicle      string                `json:"vehicle,omitempty"`
	Route        string                `json:"route,omitempty"`
	Destination  string                `json:"destination,omitempty"`
	IsTransfer   bool                  `json:"is_transfer,omitempty"`
}

// JourneyAPI is one journey of a /api/journeys response.
type JourneyAPI struct {
	Dep      string   `json:"dep"`
	Arr      string   `json:"arr"`
	Duration int      `json:"duration_mins"`
	Changes  int      `json:"changes"`
	Legs     []LegAPI `json:"legs"`
}

func apiStop(st journey.Stop) StopAPI {
	return StopAPI{Station: st.StationName, Platform: st.PlatformName, Lon: st.Lon, Lat: st.Lat}
}

func apiJourney(j journey.Journey) JourneyAPI {
	out := JourneyAPI{
		Dep:      timeutil.FormatMinutes(j.DepMins()),
		Arr:      timeutil.FormatMinutes(j.ArrMins()),
		Duration: j.Duration(),
		Changes:  j.Changes(),
	}
	for _, l := range j.Legs() {
		switch leg := l.(type) {
		case journey.TransportLeg:
			api := LegAPI{
				Type:        "transport",
				DepStop:     apiStop(leg.DepStop),
				Dep:         timeutil.FormatMinutes(leg.DepMins),
				ArrStop:     apiStop(leg.ArrStop),
				Arr:         timeutil.FormatMinutes(leg.ArrMins),
				Vehicle:     leg.Vehicle.String(),
				Route:       leg.RouteName,
				Destination: leg.Destination,
			}
			for _, is := range leg.Intermediate {
				api.Intermediate = append(api.Intermediate, IntermediateStopAPI{
					Stop: apiStop(is.Stop),
					Arr:  timeutil.FormatMinutes(is.ArrMins),
					Dep:  timeutil.FormatMinutes(is.DepMins),
				})
			}
			out.Legs = append(out.Legs, api)
		case journey.FootLeg:
			out.Legs = append(out.Legs, LegAPI{
				Type:       "foot",
				DepStop:    apiStop(leg.DepStop),
				Dep:        timeutil.FormatMinutes(leg.DepMins),
				ArrStop:    apiStop(leg.ArrStop),
				Arr:        timeutil.FormatMinutes(leg.ArrMins),
				IsTransfer: leg.IsTransfer(),
			})
		}
	}
	return out
}

// handleJourneys answers /api/journeys?from=&to=&date=&time=. Journeys
// departing before the requested time are filtered out; the rest come
// back sorted by departure.
func (s *Server) handleJourneys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	from, ok := s.stationIndex[strings.TrimSpace(q.Get("from"))]
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown station %q", q.Get("from")))
		return
	}
	to, ok := s.stationIndex[strings.TrimSpace(q.Get("to"))]
	if !ok {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown station %q", q.Get("to")))
		return
	}
	date, err := timeutil.ParseDate(q.Get("date"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	depMins := 0
	if v := q.Get("time"); v != "" {
		if depMins, err = timeutil.ParseMinutes(v); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.routing.Lock()
	profileStart := time.Now()
	p, err := router.BuildProfile(s.tt, date, to)
	profileElapsed := time.Since(profileStart)
	var journeys []journey.Journey
	var extractElapsed time.Duration
	if err == nil {
		extractStart := time.Now()
		journeys, err = journey.Extract(p, from)
		extractElapsed = time.Since(extractStart)
	}
	s.routing.Unlock()

	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	out := make([]JourneyAPI, 0, len(journeys))
	for _, j := range journeys {
		// A pure walk has no schedule; re-time it to the requested
		// departure instead of filtering it away.
		if walked, ok := retimeWalk(j, depMins); ok {
			j = walked
		} else if j.DepMins() < depMins {
			continue
		}
		if s.maxJourneys > 0 && len(out) == s.maxJourneys {
			break
		}
		out = append(out, apiJourney(j))
	}

	if s.log != nil {
		if err := s.log.Record(querylog.Entry{
			TravelDate:    timeutil.FormatDate(date),
			FromStation:   s.tt.Stations.Name(from),
			ToStation:     s.tt.Stations.Name(to),
			DepMins:       depMins,
			JourneyCount:  len(out),
			ProfileMicros: profileElapsed.Microseconds(),
			ExtractMicros: extractElapsed.Microseconds(),
		}); err != nil {
			log.Printf("query log write failed: %v", err)
		}
	}

	s.writeJSON(w, out)
}

// retimeWalk shifts a single-foot-leg journey to depart at depMins.
func retimeWalk(j journey.Journey, depMins int) (journey.Journey, bool) {
	legs := j.Legs()
	if len(legs) != 1 {
		return j, false
	}
	foot, ok := legs[0].(journey.FootLeg)
	if !ok {
		return j, false
	}
	walk := foot.ArrMins - foot.DepMins
	shifted, err := journey.New([]journey.Leg{journey.FootLeg{
		DepStop: foot.DepStop,
		DepMins: depMins,
		ArrStop: foot.ArrStop,
		ArrMins: depMins + walk,
	}})
	if err != nil {
		return j, false
	}
	return shifted, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.log == nil {
		s.writeJSONError(w, http.StatusNotFound, "query log disabled")
		return
	}
	stats, err := s.log.Stats()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, stats)
}
