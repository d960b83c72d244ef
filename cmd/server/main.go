/*
main.go - Application entry point

PURPOSE:
  Starts the work-time ledger HTTP server.

STARTUP SEQUENCE:
  1. Load configuration (file + WORKLEDGER_* environment)
  2. Open the SQLite store in the business timezone
  3. Apply the directory seed, if configured
  4. Build the engine and the HTTP router
  5. Serve until SIGINT/SIGTERM, then shut down gracefully

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection

EXAMPLES:
  ./server -config=ledger.yaml
  WORKLEDGER_DATABASE_PATH=":memory:" WORKLEDGER_DIRECTORY_SEED_FILE=seed.yaml ./server

SEE ALSO:
  - config/config.go: keys and defaults
  - api/server.go: router configuration
  - store/sqlite/sqlite.go: database implementation
*/
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/work-ledger/api"
	"github.com/warp/work-ledger/config"
	"github.com/warp/work-ledger/directory"
	"github.com/warp/work-ledger/store/sqlite"
	"github.com/warp/work-ledger/worktime"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := sqlite.New(cfg.Database.Path, sqlite.WithLocation(cfg.Location()))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if cfg.Directory.SeedFile != "" {
		seed, err := directory.LoadFile(cfg.Directory.SeedFile)
		if err != nil {
			log.Fatalf("Failed to load directory seed: %v", err)
		}
		if err := directory.Apply(context.Background(), store, seed); err != nil {
			log.Fatalf("Failed to apply directory seed: %v", err)
		}
		log.Printf("[Server] seeded %d employees, %d responsibilities", len(seed.Employees), len(seed.Responsibilities))
	}

	engine := worktime.NewEngine(worktime.Config{
		Store:             store,
		Location:          cfg.Location(),
		DailyLookbackDays: cfg.Ledger.DailyLookbackDays,
		StandardDayHours:  cfg.StandardDay(),
	})

	handler := api.NewHandler(engine, store)
	handler.Health = store.Ping
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Server] listening on %s (timezone %s, db %s)", cfg.Addr(), cfg.Location(), cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[Server] stopped")
}
