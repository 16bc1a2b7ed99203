// Package main implements the chess rules server: a REST API over the rules
// engine with optional SQLite persistence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chessrules/cmd/chess-server/cli"
	"chessrules/internal/server/http"
	"chessrules/internal/server/processor"
	"chessrules/internal/server/service"
	"chessrules/internal/server/storage"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 8080, "API server port")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, console logging)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (disables persistence if empty)")
		pidPath     = flag.String("pid", "", "Optional path to write PID file")
		pidLock     = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	log := newLogger(*dev, *logLevel)

	if *pidLock && *pidPath == "" {
		log.Fatal().Msg("-pid-lock flag requires the -pid flag to be set")
	}

	if *pidPath != "" {
		pf, err := acquirePIDFile(*pidPath, *pidLock, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to acquire PID file")
		}
		defer pf.Release()
		log.Info().Str("path", *pidPath).Bool("lock", *pidLock).Msg("PID file created")
	}

	// 1. Storage (optional)
	var store *storage.Store
	if *storagePath != "" {
		var err error
		store, err = storage.NewStore(*storagePath, *dev, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize storage")
		}
		if err := store.InitDB(); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		log.Info().Str("path", *storagePath).Msg("persistent storage enabled")
	} else {
		log.Info().Msg("persistent storage disabled (use -storage-path to enable)")
	}

	// 2. Service, 3. Processor, 4. HTTP
	svc := service.New(store, log)
	proc := processor.New(svc, log)
	app := http.NewFiberApp(proc, svc, *dev)

	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		log.Info().
			Str("addr", "http://"+apiAddr).
			Str("games", fmt.Sprintf("http://%s/api/v1/games", apiAddr)).
			Str("health", fmt.Sprintf("http://%s/health", apiAddr)).
			Bool("dev", *dev).
			Msg("chess API server starting")

		if err := app.Listen(apiAddr); err != nil {
			log.Error().Err(err).Msg("API server listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
	}

	// Releases long-poll waiters and closes storage
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("service shutdown error")
	}

	log.Info().Msg("server exited")
}

func newLogger(dev bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if dev {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(lvl).With().Timestamp().Logger()
}
