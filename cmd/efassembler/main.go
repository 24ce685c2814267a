// efassembler runs the P3 Event Family assembler (C5) over the unassigned
// strategic backlog, batching titles into LLM calls and creating new
// Event Families from the results.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/arclinehq/arcline/pkg/config"
	"github.com/arclinehq/arcline/pkg/database"
	"github.com/arclinehq/arcline/pkg/efassembler"
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

	log := slog.With("cmd", "efassembler")

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
	narrativeExtractor := narrative.New(llm, cfg.Narrative)
	frameStore := narrative.NewStore(dbClient.DB())

	assembler := efassembler.New(titles, llm, narrativeExtractor, frameStore, cfg.Assembler)

	result, err := assembler.Run(ctx)
	if err != nil {
		log.Error("assembler run aborted", "error", err)
		os.Exit(1)
	}

	log.Info("assembler run complete",
		"batch_size", result.BatchSize,
		"efs_created", result.EFsCreated,
		"titles_assigned", result.TitlesAssigned,
		"dropped", result.Dropped)
}
