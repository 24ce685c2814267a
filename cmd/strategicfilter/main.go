// strategicfilter runs the P2 three-stage strategic filter (C4) over every
// title still awaiting a verdict, checkpointing after each one.
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
	"github.com/arclinehq/arcline/pkg/graphindex"
	"github.com/arclinehq/arcline/pkg/runner"
	"github.com/arclinehq/arcline/pkg/strategicfilter"
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
	limit := flag.Int("limit", 0, "max titles to process this run (0 = entire backlog)")
	flag.Parse()

	log := slog.With("cmd", "strategicfilter")

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
		log.Warn("graph store unreachable at startup, stage 2 will treat every lookup as 'no boost'", "error", err)
	}

	titles := titlestore.New(dbClient.DB())
	filter := strategicfilter.New(cfg.Filter, graphClient)

	checkpoints, err := runner.NewCheckpointStore(cfg.Runner.CheckpointDir)
	if err != nil {
		log.Error("failed to open checkpoint store", "error", err)
		os.Exit(1)
	}
	driver := runner.NewDriver[*titlestore.Title](checkpoints, "strategicfilter", cfg.Runner)

	pending, err := titles.ListUnfiltered(ctx, *limit)
	if err != nil {
		log.Error("failed to load unfiltered titles", "error", err)
		os.Exit(1)
	}
	log.Info("loaded backlog", "count", len(pending))

	summary, err := driver.Run(ctx, pending, func(ctx context.Context, t *titlestore.Title) error {
		verdict := filter.Evaluate(ctx, t)
		outcome := titlestore.VerdictNonStrategic
		if verdict.Keep {
			outcome = titlestore.VerdictStrategic
		}
		return titles.MarkVerdict(ctx, t.ID, outcome, verdict.Reason, nil, nil)
	}, *limit == 0)
	if err != nil {
		log.Error("filter run aborted", "error", err)
		os.Exit(1)
	}

	log.Info("filter run complete", "processed", summary.Processed, "succeeded", summary.Succeeded, "failed", summary.Failed)
}
