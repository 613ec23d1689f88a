// Package main implements hostwatch-dump, a maintenance tool that prints
// every stored domain/key/value triple from an offline database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hostwatch/hostwatch/internal/config"
	"github.com/hostwatch/hostwatch/internal/dispatch"
	"github.com/hostwatch/hostwatch/internal/logging"
	"github.com/hostwatch/hostwatch/internal/store"
	"github.com/hostwatch/hostwatch/internal/store/bolt"
	"github.com/hostwatch/hostwatch/internal/store/sqlite"
)

func main() {
	var (
		configFile string
		backend    string
		dbPath     string
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&backend, "database-backend", "", "Storage backend: bolt, sqlite")
	flag.StringVar(&dbPath, "database-path", "", "Database file path")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "hostwatch-dump - Print stored host state as domain[key]: value lines\n\n")
		fmt.Fprintf(os.Stderr, "Usage: hostwatch-dump [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hostwatch-dump --database-path /var/lib/hostwatch/hostwatch.db\n")
		fmt.Fprintf(os.Stderr, "  hostwatch-dump --database-backend sqlite --database-path /var/lib/hostwatch/hostwatch.sqlite\n")
	}

	flag.Parse()

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)
	if backend != "" {
		cfg.Database.Backend = backend
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.Init("warn", cfg.Logging.Format)

	registry := store.NewRegistry()
	for _, b := range []store.Backend{
		bolt.New(cfg.Database.Path, bolt.Options{Compress: cfg.Database.CompressValues}),
		sqlite.New(cfg.Database.Path),
	} {
		if err := registry.Register(b); err != nil {
			log.Fatalf("Failed to register backend: %v", err)
		}
	}
	defer registry.Shutdown()

	name := store.ActiveBackendName(false, cfg.Database.Backend)
	if err := registry.SetActive(name); err != nil {
		log.Fatalf("Failed to open %s database at %s: %v", name, cfg.Database.Path, err)
	}

	d := dispatch.NewLocal(registry, dispatch.WithLogger(logging.For("dump")))
	if err := d.Dump(context.Background(), os.Stdout); err != nil {
		log.Fatalf("Dump failed: %v", err)
	}
}
