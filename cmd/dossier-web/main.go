package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dossier-io/dossier/internal/config"
	"github.com/dossier-io/dossier/internal/server"
	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/internal/storage/postgres"
	"github.com/dossier-io/dossier/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default: env only)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFile(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize storage
	var store storage.EntityStore
	switch cfg.Storage.Engine {
	case "sqlite":
		store, err = sqlite.NewEntityStore(cfg.Storage.DataPath + "/dossier.db")
	case "postgres":
		store, err = postgres.NewEntityStore(cfg.Storage.PostgresDSN)
	default:
		log.Fatalf("Unknown storage engine: %s", cfg.Storage.Engine)
	}
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, _ := server.Start(ctx, cfg, store)
	log.Printf("Dossier API running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
