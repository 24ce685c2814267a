// connectivity runs the C3 connectivity cache refresh: cheap raw pair
// counts from the graph, Jaccard/actor-match scoring, batched upsert.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/connectivity"
	"github.com/arclinehq/arcline/pkg/database"
	"github.com/arclinehq/arcline/pkg/graphindex"
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
	flag.Parse()

	log := slog.With("cmd", "connectivity")

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

	graphClient, err := graphindex.NewClient(cfg.GraphURI, cfg.GraphUser, cfg.GraphPassword, "")
	if err != nil {
		log.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(ctx); err != nil {
			log.Error("error closing graph client", "error", err)
		}
	}()
	if err := graphClient.VerifyConnectivity(ctx); err != nil {
		log.Error("graph store unreachable, connectivity refresh needs it", "error", err)
		os.Exit(1)
	}

	titles := titlestore.New(dbClient.DB())
	cache := connectivity.New(dbClient.DB())
	refresher := connectivity.NewRefresher(graphClient, titles, cache, cfg.Connectivity)

	result, err := refresher.Refresh(ctx)
	if err != nil {
		log.Error("connectivity refresh aborted", "error", err)
		os.Exit(1)
	}

	log.Info("connectivity refresh complete",
		"candidate_pairs", result.CandidatePairs,
		"written_rows", result.WrittenRows)
}
