// Package app provides the unified application lifecycle management for
// the hostwatch daemon.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	httpapi "github.com/hostwatch/hostwatch/internal/api/http"
	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/internal/dispatch"
	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/logging"
	"github.com/hostwatch/hostwatch/internal/observability"
	"github.com/hostwatch/hostwatch/internal/server"
	"github.com/hostwatch/hostwatch/internal/store"
	"github.com/hostwatch/hostwatch/internal/store/bolt"
	"github.com/hostwatch/hostwatch/internal/store/sqlite"
)

// App manages the hostwatch daemon lifecycle.
type App struct {
	cfg *config.Config
	log *slog.Logger

	// Shared resources
	registry   *store.Registry
	dispatcher *dispatch.Dispatcher
	stats      *observability.StoreStats
	shutdown   *server.ShutdownManager

	// Extension API
	extensionServer *http.Server

	// Lifecycle
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	if !cfg.Database.Disabled {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("failed to create directories: %w", err)
		}
	}

	return &App{
		cfg: cfg,
		log: logging.For("app"),
	}, nil
}

// Dispatcher returns the storage dispatcher. It is nil until Start.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Registry returns the backend registry. It is nil until Start.
func (a *App) Registry() *store.Registry {
	return a.registry
}

// Start initializes storage and starts the configured services.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	a.shutdown = server.NewShutdownManager(server.DefaultShutdownConfig(), logging.For("shutdown"))

	if err := a.initStorage(); err != nil {
		a.cleanup()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if a.cfg.Extension.Enabled {
		if err := a.startExtensionService(); err != nil {
			a.cleanup()
			return fmt.Errorf("failed to start extension service: %w", err)
		}
	}

	a.log.Info("hostwatch started",
		"backend", a.registry.ActiveName(),
		"extension_api", a.cfg.Extension.Enabled)
	return nil
}

// initStorage registers the known backends, self-tests the persistent one,
// and activates the selected backend.
func (a *App) initStorage() error {
	a.registry = store.NewRegistry()
	a.stats = observability.NewStoreStats()

	boltBackend := bolt.New(a.cfg.Database.Path, bolt.Options{
		Compress: a.cfg.Database.CompressValues,
	})
	sqliteBackend := sqlite.New(a.cfg.Database.Path)

	for _, b := range []store.Backend{store.NewEphemeral(), boltBackend, sqliteBackend} {
		if err := a.registry.Register(b); err != nil {
			return err
		}
	}

	name := store.ActiveBackendName(a.cfg.Database.Disabled, a.cfg.Database.Backend)

	// Self-test persistent backends before committing to them. A backend
	// that cannot open, or opens read-only when writes are required, must
	// fail startup rather than limp along.
	if name != store.EphemeralBackend {
		var probe store.Backend
		switch name {
		case store.DefaultBackend:
			probe = bolt.New(a.cfg.Database.Path, bolt.Options{Compress: a.cfg.Database.CompressValues})
		case sqlite.BackendName:
			probe = sqlite.New(a.cfg.Database.Path)
		}
		if probe != nil && !store.CheckDB(probe, store.CheckOptions{RequireWrite: a.cfg.Database.RequireWrite}) {
			return hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
				"backend self-test failed: "+name, nil)
		}
	}

	if err := a.registry.SetActive(name); err != nil {
		return err
	}

	a.shutdown.RegisterCloser(server.CloserFunc(a.registry.Shutdown))

	a.dispatcher = dispatch.NewLocal(a.registry,
		dispatch.WithStats(a.stats),
		dispatch.WithLogger(logging.For("dispatch")))
	return nil
}

// startExtensionService starts the extension API HTTP server.
func (a *App) startExtensionService() error {
	storeServer := httpapi.NewStoreServer(a.registry, a.stats, logging.For("extension"))

	handler := server.ShutdownMiddleware(a.shutdown)(storeServer.Routes())

	a.extensionServer = &http.Server{
		Addr:         a.cfg.Extension.Addr,
		Handler:      handler,
		ReadTimeout:  a.cfg.Extension.ReadTimeout,
		WriteTimeout: a.cfg.Extension.WriteTimeout,
		IdleTimeout:  a.cfg.Extension.IdleTimeout,
	}
	a.shutdown.RegisterCloser(&httpServerCloser{server: a.extensionServer})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.log.Info("extension API listening", "addr", a.cfg.Extension.Addr)
		if err := a.extensionServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("extension API server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops all services and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	err := a.shutdown.Shutdown(ctx, "stop requested")

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("shutdown timeout, some goroutines may not have finished")
	}

	a.cleanup()
	a.log.Info("hostwatch stopped")
	return err
}

// cleanup releases shared resources not owned by the shutdown manager.
func (a *App) cleanup() {
	if a.registry != nil && !a.shutdownOwned() {
		_ = a.registry.Shutdown()
	}
}

// shutdownOwned reports whether the shutdown manager already ran the
// registry teardown.
func (a *App) shutdownOwned() bool {
	return a.shutdown != nil && a.shutdown.IsShuttingDown()
}

// WaitForShutdown blocks until a shutdown signal is received.
func (a *App) WaitForShutdown(ctx context.Context) error {
	return a.shutdown.ListenForSignals(ctx)
}

// httpServerCloser wraps http.Server to implement io.Closer with graceful
// shutdown.
type httpServerCloser struct {
	server *http.Server
}

func (c *httpServerCloser) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}
