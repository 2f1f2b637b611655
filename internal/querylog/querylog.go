// Package querylog records served journey queries in a local sqlite
// database and aggregates latency statistics over them. Logging is
// best-effort: a write failure is the caller's to log, never a reason
// to fail the request that triggered it.
package querylog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

// schemaSQL is embedded and executed when a database is opened, so a
// fresh file is usable immediately and the schema ships inside the
// binary.
//
//go:embed schema.sql
var schemaSQL string

const schemaVersion = "1"

// DB wraps the query-log database.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the query log at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening query log %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating query log schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("recording schema version: %w", err)
	}
	return &DB{DB: db}, nil
}

// Entry is one served journey query.
type Entry struct {
	ID            string
	CreatedUnix   int64
	TravelDate    string
	FromStation   string
	ToStation     string
	DepMins       int
	JourneyCount  int
	ProfileMicros int64
	ExtractMicros int64
}

// Record stores one entry, assigning its id and timestamp if unset.
func (db *DB) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedUnix == 0 {
		e.CreatedUnix = time.Now().Unix()
	}
	_, err := db.Exec(
		`INSERT INTO query_log
		 (id, created_unix, travel_date, from_station, to_station, dep_mins, journey_count, profile_micros, extract_micros)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedUnix, e.TravelDate, e.FromStation, e.ToStation,
		e.DepMins, e.JourneyCount, e.ProfileMicros, e.ExtractMicros)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT id, created_unix, travel_date, from_station, to_station, dep_mins, journey_count, profile_micros, extract_micros
		 FROM query_log ORDER BY created_unix DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedUnix, &e.TravelDate, &e.FromStation, &e.ToStation,
			&e.DepMins, &e.JourneyCount, &e.ProfileMicros, &e.ExtractMicros); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes the logged queries. Percentiles are in microseconds.
type Stats struct {
	Count       int     `json:"count"`
	AvgJourneys float64 `json:"avg_journeys"`

	ProfileP50 float64 `json:"profile_p50_micros"`
	ProfileP85 float64 `json:"profile_p85_micros"`
	ProfileP98 float64 `json:"profile_p98_micros"`

	ExtractP50 float64 `json:"extract_p50_micros"`
	ExtractP85 float64 `json:"extract_p85_micros"`
	ExtractP98 float64 `json:"extract_p98_micros"`
}

// Stats aggregates over the whole log.
func (db *DB) Stats() (Stats, error) {
	rows, err := db.Query(`SELECT journey_count, profile_micros, extract_micros FROM query_log`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var profile, extract []float64
	var journeys int
	for rows.Next() {
		var jc int
		var pm, em int64
		if err := rows.Scan(&jc, &pm, &em); err != nil {
			return Stats{}, err
		}
		journeys += jc
		profile = append(profile, float64(pm))
		extract = append(extract, float64(em))
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	s := Stats{Count: len(profile)}
	if s.Count == 0 {
		return s, nil
	}
	s.AvgJourneys = float64(journeys) / float64(s.Count)

	// stat.Quantile wants sorted data.
	sort.Float64s(profile)
	sort.Float64s(extract)
	s.ProfileP50 = stat.Quantile(0.50, stat.Empirical, profile, nil)
	s.ProfileP85 = stat.Quantile(0.85, stat.Empirical, profile, nil)
	s.ProfileP98 = stat.Quantile(0.98, stat.Empirical, profile, nil)
	s.ExtractP50 = stat.Quantile(0.50, stat.Empirical, extract, nil)
	s.ExtractP85 = stat.Quantile(0.85, stat.Empirical, extract, nil)
	s.ExtractP98 = stat.Quantile(0.98, stat.Empirical, extract, nil)
	return s, nil
}
