package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/agents"
	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/embeddings"
	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/memory"
	"github.com/groundtruth/concierge/internal/pipeline"
	"github.com/groundtruth/concierge/internal/privacy"
	"github.com/groundtruth/concierge/internal/profile"
	"github.com/groundtruth/concierge/internal/server"
	"github.com/groundtruth/concierge/internal/stores"
	"github.com/groundtruth/concierge/internal/websocket"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("GroundTruth Concierge %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting GroundTruth Concierge",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	masker, err := privacy.New(cfg.Privacy, log)
	if err != nil {
		log.Fatal("Failed to build masking engine", zap.Error(err))
	}

	intentEngine, err := agents.NewIntentEngine(cfg.LLM, log)
	if err != nil {
		log.Fatal("Failed to build intent engine", zap.Error(err))
	}
	defer intentEngine.Close()

	responseEngine, err := agents.NewResponseEngine(cfg.LLM, log)
	if err != nil {
		log.Fatal("Failed to build response engine", zap.Error(err))
	}
	defer responseEngine.Close()

	profiles, err := profile.New(cfg.Profile.UsersFile, log)
	if err != nil {
		log.Fatal("Failed to load user profiles", zap.Error(err))
	}

	mem, err := buildMemoryStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to build memory store", zap.Error(err))
	}
	defer mem.Close()

	retriever, err := buildRetriever(cfg, log)
	if err != nil {
		log.Fatal("Failed to build FAQ retriever", zap.Error(err))
	}
	defer retriever.Close()

	hub := websocket.NewHub(cfg.WebSocket, log)

	pipe := pipeline.New(cfg, masker, intentEngine, responseEngine,
		stores.NewLocator(), profiles, mem, retriever, log)

	srv := server.New(cfg, pipe, mem, hub, log)

	// Hot reload: log the change so operators can see it landed. A
	// restart is still needed for provider swaps.
	if err := config.Watch(cfg, func(newCfg *config.Config) {
		log.Info("Configuration file changed",
			zap.String("llm_provider", newCfg.LLM.Provider),
			zap.Bool("privacy_enabled", newCfg.Privacy.Enabled))
	}); err != nil {
		log.Warn("Failed to watch configuration file", zap.Error(err))
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// buildMemoryStore selects Redis when a URL is configured, otherwise the
// in-process bounded store.
func buildMemoryStore(cfg *config.Config, log *logger.Logger) (memory.Store, error) {
	if cfg.Memory.RedisURL != "" {
		return memory.NewRedisStore(cfg.Memory, log)
	}
	log.Info("Using in-memory user store",
		zap.Int("history_limit", cfg.Memory.HistoryLimit))
	return memory.NewInMemoryStore(cfg.Memory.HistoryLimit), nil
}

// buildRetriever selects the pgvector store when a database is configured,
// otherwise the static keyword retriever over the builtin policy docs.
func buildRetriever(cfg *config.Config, log *logger.Logger) (faq.Retriever, error) {
	if cfg.FAQ.DatabaseURL == "" {
		log.Info("Using static FAQ retriever")
		return faq.NewStatic(nil, log), nil
	}

	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return nil, err
	}
	return faq.NewVectorStore(cfg.FAQ, embedder, log)
}

func buildEmbedder(cfg *config.Config, log *logger.Logger) (embeddings.Service, error) {
	switch cfg.Embeddings.Provider {
	case "genai":
		return embeddings.NewGenAIService(context.Background(),
			cfg.Embeddings.APIKey, cfg.Embeddings.Model, log.Logger)
	default:
		return embeddings.NewHashService(log.Logger), nil
	}
}

// performHealthCheck performs a health check against the running server
func performHealthCheck() {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
