// narrative runs the batch side of the C8 refresh policy: every non-frozen
// CTM bucket whose title count has grown enough, and aged enough, since its
// last summary gets its narrative frames regenerated (§4.8).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/ctm"
	"github.com/arclinehq/arcline/pkg/database"
	"github.com/arclinehq/arcline/pkg/llmclient"
	"github.com/arclinehq/arcline/pkg/narrative"
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

	log := slog.With("cmd", "narrative")

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

	llmCfg, apiKey := cfg.LLMClient()
	llm := llmclient.New(llmCfg, apiKey)

	titles := titlestore.New(dbClient.DB())
	ctmStore := ctm.New(dbClient.DB())
	extractor := narrative.New(llm, cfg.Narrative)
	frameStore := narrative.NewStore(dbClient.DB())

	refresher := narrative.NewRefresher(titles, ctmStore, extractor, frameStore, cfg.Narrative)

	result, err := refresher.RefreshDueCTMs(ctx)
	if err != nil {
		log.Error("narrative refresh aborted", "error", err)
		os.Exit(1)
	}

	log.Info("narrative refresh complete",
		"checked", result.Checked,
		"refreshed", result.Refreshed,
		"failed", result.Failed)
}
