/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the factor pool HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Parse command-line flags (override config)
  3. Open the factor store (SQLite or MySQL)
  4. Create engine, handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: FACTOR_SQLITE_PATH or factor_pool.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  See config/config.go. FACTOR_DB_DRIVER=mysql switches to MySQL.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/yearone/factor-pool/api"
	"github.com/yearone/factor-pool/config"
	"github.com/yearone/factor-pool/factor"
	"github.com/yearone/factor-pool/logger"
	"github.com/yearone/factor-pool/store/mysql"
	"github.com/yearone/factor-pool/store/sqlite"
)

// closableStore is a factor.Store that owns a connection.
type closableStore interface {
	factor.Store
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.SQLitePath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.SQLitePath = *dbPath

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	// Initialize store
	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("Failed to initialize database")
	}
	defer store.Close()

	engine := factor.NewEngine(store, log)
	handler := api.NewHandler(engine, log)
	router := api.NewRouter(handler, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Str("driver", cfg.Driver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(cfg *config.Config, log zerolog.Logger) (closableStore, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.New(cfg.MySQL, log)
	default:
		return sqlite.New(cfg.SQLitePath, log)
	}
}
