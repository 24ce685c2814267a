// extractapi serves the §6 on-demand HTTP interface: a bearer-token gated
// POST /extract that re-runs C8 for a single event or CTM bucket, plus an
// unauthenticated GET /health.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arclinehq/arcline/pkg/api"
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

	log := slog.With("cmd", "extractapi")

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
	if cfg.APIBearerToken == "" {
		log.Error("no bearer token configured; set api.bearer_token_env in pipeline.yaml and export it")
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

	svc := api.NewExtractService(titles, ctmStore, extractor, frameStore, cfg.Narrative)
	srv := api.NewServer(dbClient, svc, cfg.APIBearerToken)

	listenAddr := cfg.APIListenAddr
	if listenAddr == "" {
		listenAddr = ":8081"
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("extract api listening", "addr", listenAddr)
		if err := srv.Start(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	log.Info("shutting down extract api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
