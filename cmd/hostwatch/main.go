// Package main implements the hostwatch daemon binary. It owns the storage
// backend registry and serves the extension API for external processes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hostwatch/hostwatch/internal/app"
	"github.com/hostwatch/hostwatch/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile    string
		dataDir       string
		backend       string
		dbPath        string
		dbDisabled    bool
		extensionAddr string
		logLevel      string
		showVersion   bool
		showHelp      bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&backend, "database-backend", "", "Storage backend: bolt, sqlite")
	flag.StringVar(&dbPath, "database-path", "", "Database file path")
	flag.BoolVar(&dbDisabled, "database-disabled", false, "Use the ephemeral in-memory backend")
	flag.StringVar(&extensionAddr, "extension-addr", "", "Listen address for the extension API")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Hostwatch - Host State Storage And Change Detection Daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: hostwatch [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hostwatch --data-dir /var/lib/hostwatch\n")
		fmt.Fprintf(os.Stderr, "  hostwatch --database-backend sqlite --data-dir /var/lib/hostwatch\n")
		fmt.Fprintf(os.Stderr, "  hostwatch --config /etc/hostwatch/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  HOSTWATCH_DATA_DIR           Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  HOSTWATCH_DATABASE_BACKEND   Storage backend (bolt, sqlite)\n")
		fmt.Fprintf(os.Stderr, "  HOSTWATCH_DATABASE_DISABLED  Use the ephemeral in-memory backend\n")
		fmt.Fprintf(os.Stderr, "  HOSTWATCH_EXTENSION_ADDR     Listen address for the extension API\n")
		fmt.Fprintf(os.Stderr, "  HOSTWATCH_LOG_LEVEL          Log level (debug, info, warn, error)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("hostwatch version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, dataDir, backend, dbPath, dbDisabled, extensionAddr, logLevel)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	log.Printf("Received signal: %v", sig)

	if err := application.Stop(context.Background()); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, backend, dbPath string, dbDisabled bool, extensionAddr, logLevel string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	// Command line flags take highest priority
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend != "" {
		cfg.Database.Backend = backend
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if dbDisabled {
		cfg.Database.Disabled = true
	}
	if extensionAddr != "" {
		cfg.Extension.Addr = extensionAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	return cfg, nil
}
