package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/fdadrugs-api/config"
	"github.com/giygas/fdadrugs-api/data"
	"github.com/giygas/fdadrugs-api/drugparser"
	"github.com/giygas/fdadrugs-api/handlers"
	"github.com/giygas/fdadrugs-api/health"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
	"github.com/giygas/fdadrugs-api/scheduler"
	"github.com/giygas/fdadrugs-api/search"
	"github.com/giygas/fdadrugs-api/server"
	"github.com/giygas/fdadrugs-api/validation"
	"github.com/giygas/fdadrugs-api/wiki"
	"github.com/joho/godotenv"
)

// loadTimeout bounds how long the server waits for the corpus
const loadTimeout = 10 * time.Minute

func loadEnv() error {
	if err := godotenv.Load(); err == nil {
		return nil
	}

	// If failed, try loading from the executable directory
	ex, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	exPath := filepath.Dir(ex)
	if err := os.Chdir(exPath); err != nil {
		return fmt.Errorf("failed to change directory: %w", err)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func main() {
	if err := loadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithConfig(cfg.LogDir, cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Server exited with error", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	rateLimiter := server.NewRateLimiter()

	sched := scheduler.NewScheduler(store, drugparser.NewDrugsParser(cfg.DataDir, cfg.DataBaseURL), validator, rateLimiter)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := store.WaitReady(ctx); err != nil {
		return err
	}

	handler, searcher, err := newHandler(cfg, store, validator)
	if err != nil {
		return err
	}
	defer searcher.Close()

	srv := server.NewServer(cfg, handler, rateLimiter)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// newHandler builds the search index over a ready store and wires the HTTP handlers.
// The caller closes the returned searcher.
func newHandler(cfg *config.Config, store interfaces.DataStore, validator interfaces.DataValidator) (interfaces.HTTPHandler, *search.Searcher, error) {
	searcher, err := search.NewSearcher(store, cfg.Search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build searcher: %w", err)
	}

	handler := handlers.NewHTTPHandler(
		searcher,
		store,
		validator,
		wiki.NewClient(cfg.WikiBaseURL),
		health.NewHealthChecker(store),
	)
	return handler, searcher, nil
}
