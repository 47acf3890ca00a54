// Package main provides the station server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/jmoreiras/rockwave/internal/api/rest"
	"github.com/jmoreiras/rockwave/internal/app/extractor"
	"github.com/jmoreiras/rockwave/internal/app/resolver"
	"github.com/jmoreiras/rockwave/internal/app/station"
	"github.com/jmoreiras/rockwave/internal/domain/catalog"
	"github.com/jmoreiras/rockwave/internal/infra/config"
	"github.com/jmoreiras/rockwave/internal/infra/logger"
)

var (
	app        = kingpin.New("rockwave-server", "Rockwave continuous radio server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements run even when returning with an error.
func run(cfg *config.Config) error {
	ext, err := extractor.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	cat := catalog.New(cfg.MinTrackDuration())
	res := resolver.New(ext, cat, resolver.Config{RefreshMargin: cfg.RefreshMargin()})
	st := station.New(cfg, cat, res, ext)

	// Seed the rotation in the background; each seed needs an extractor
	// round-trip, and the API can already answer "no signal" meanwhile.
	seedCtx, cancelSeed := context.WithCancel(context.Background())
	defer cancelSeed()
	go func() {
		if err := st.Start(seedCtx); err != nil {
			zlog.Error().Msgf("Failed to seed playlist: %v", err)
		}
	}()

	e := rest.NewRouter(st)

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s station=%q", cfg.Server.Addr, cfg.Station.Name)
		if err := e.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	cancelSeed()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}
