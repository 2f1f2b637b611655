// Command horizon serves journey-planning queries over a binary
// timetable directory through an HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-transit/horizon/internal/api"
	"github.com/atlas-transit/horizon/internal/config"
	"github.com/atlas-transit/horizon/internal/querylog"
	"github.com/atlas-transit/horizon/internal/router"
	"github.com/atlas-transit/horizon/internal/version"
)

var (
	timetableDir = flag.String("timetable", "./timetable", "Timetable directory")
	listen       = flag.String("listen", ":8080", "Listen address")
	configPath   = flag.String("config", "", "Optional JSON config file")
	queryLogPath = flag.String("querylog", "", "Sqlite query log path (empty disables)")
	maxJourneys  = flag.Int("max-journeys", 0, "Cap on journeys per response (0 = no cap)")
	logDiag      = flag.Bool("diag", false, "Enable diagnostic logging")
	logTrace     = flag.Bool("trace", false, "Enable trace logging (very verbose)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("horizon %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	var diag, trace io.Writer
	if cfg.GetLogDiag(*logDiag) {
		diag = os.Stderr
	}
	if cfg.GetLogTrace(*logTrace) {
		trace = os.Stderr
	}
	router.SetLogWriters(diag, trace)

	tt, err := openTimetable(cfg.GetTimetableDir(*timetableDir))
	if err != nil {
		log.Fatalf("opening timetable: %v", err)
	}
	defer tt.Close()

	var queries *querylog.DB
	if path := cfg.GetQueryLogPath(*queryLogPath); path != "" {
		if queries, err = querylog.Open(path); err != nil {
			log.Fatalf("opening query log: %v", err)
		}
		defer queries.Close()
	}

	server := api.NewServer(tt, queries, cfg.GetMaxJourneys(*maxJourneys))
	httpServer := &http.Server{
		Addr:    cfg.GetListen(*listen),
		Handler: api.LoggingMiddleware(server.ServeMux()),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("journey API listening on %s", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("server failed: %v", err)
	case sig := <-sigCh:
		log.Printf("received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}
