// enrich runs the C6 Enrichment Processor over the day's prioritized queue
// of seed-status Event Families, capped at daily_cap.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/arclinehq/arcline/pkg/centroid"
	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/database"
	"github.com/arclinehq/arcline/pkg/enrichment"
	"github.com/arclinehq/arcline/pkg/llmclient"
	"github.com/arclinehq/arcline/pkg/titlestore"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	centroidsPath := flag.String("centroids", getEnv("CENTROIDS_PATH", "./deploy/config/centroids.yaml"), "path to centroids.yaml")
	flag.Parse()

	log := slog.With("cmd", "enrich")

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	dbClient, err := database.NewClient(ctx, database.NewConfig(
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
		cfg.DBMaxOpen, cfg.DBMaxIdle, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime,
	))
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Error("error closing database client", "error", err)
		}
	}()

	defs, err := centroid.LoadDefinitions(*centroidsPath)
	if err != nil {
		log.Error("failed to load centroid definitions", "error", err)
		os.Exit(1)
	}
	registry := centroid.NewRegistry(defs)
	log.Info("loaded centroid registry", "count", registry.Len())

	llmCfg, apiKey := cfg.LLMClient()
	llm := llmclient.New(llmCfg, apiKey)

	titles := titlestore.New(dbClient.DB())
	processor := enrichment.New(titles, llm, registry, cfg.Enrichment)

	result, err := processor.Run(ctx)
	if err != nil {
		log.Error("enrichment run aborted", "error", err)
		os.Exit(1)
	}

	log.Info("enrichment run complete",
		"candidates", result.Candidates,
		"enriched", result.Enriched,
		"failed", result.Failed)
}
