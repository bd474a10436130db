package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adonnan/form-blocker/internal/blocker/common/log"
	"github.com/adonnan/form-blocker/internal/blocker/config"
	"github.com/adonnan/form-blocker/internal/blocker/gateways/rest"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist"
	"github.com/adonnan/form-blocker/internal/blocker/repos/blocklist/file"
	"github.com/adonnan/form-blocker/internal/blocker/repos/settings"
	settingsbolt "github.com/adonnan/form-blocker/internal/blocker/repos/settings/bolt"
	"github.com/adonnan/form-blocker/internal/blocker/services/formcheck"
	"github.com/adonnan/form-blocker/internal/blocker/services/ingest"
)

const (
	version = "1.0.0"
	appName = "formblockerd"

	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Application holds all the components of the blocker service.
type Application struct {
	config       *config.AppConfig
	server       *http.Server
	settingsShut func() error
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":            appName,
		"version":        version,
		"env":            cfg.Env,
		"log_level":      cfg.LogLevel,
		"port":           cfg.Port,
		"blocklist_path": cfg.BlocklistPath,
		"settings_db":    cfg.SettingsDB,
		"cache_ttl":      cfg.CacheTTL.String(),
	}, "Starting form blocker")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "Form blocker stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	// Repository layer
	store := file.New(cfg.BlocklistPath, logger)
	cache := blocklist.NewTTLCache(cfg.CacheTTL)
	lists := blocklist.NewRepository(store, cache, logger)

	settingsStore, err := settingsbolt.Open(cfg.SettingsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	settingsSvc := settings.New(settingsStore)
	if err := settingsSvc.Init(); err != nil {
		_ = settingsStore.Close()
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	// Warm the snapshot cache; a missing document self-heals here.
	initial := lists.Load(true)
	log.Info(map[string]any{
		"domains": len(initial.Domains),
		"emails":  len(initial.Emails),
	}, "Blocklist loaded")

	// Service layer
	ingestSvc := ingest.New(lists, logger)
	checkSvc := formcheck.New(lists, settingsSvc)

	// Gateway layer
	gateway := rest.New(rest.Options{
		Lists:          lists,
		Ingest:         ingestSvc,
		Checks:         checkSvc,
		Settings:       settingsSvc,
		AdminToken:     cfg.AdminToken,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gateway.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &Application{
		config:       cfg,
		server:       srv,
		settingsShut: settingsStore.Close,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (app *Application) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	log.Info(map[string]any{"address": app.server.Addr}, "HTTP server started")

	select {
	case err := <-errChan:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during HTTP shutdown")
	}
	if err := app.settingsShut(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing settings store")
	}

	return nil
}
