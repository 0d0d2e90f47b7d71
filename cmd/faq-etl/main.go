package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/embeddings"
	"github.com/groundtruth/concierge/internal/etl"
	"github.com/groundtruth/concierge/internal/faq"
	"github.com/groundtruth/concierge/internal/logger"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Configuration file path")
		inputFile   = flag.String("input", "", "FAQ corpus file (CSV, Parquet, or JSON lines)")
		batchSize   = flag.Int("batch-size", 100, "Batch size for indexing")
		seedBuiltin = flag.Bool("seed-builtin", false, "Index the builtin policy documents")
		showStats   = flag.Bool("stats", false, "Show index statistics and exit")
	)
	flag.Parse()

	if *inputFile == "" && !*seedBuiltin && !*showStats {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input faq.csv --batch-size 50\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --seed-builtin\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --stats\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.FAQ.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "faq.database_url must be set to index a corpus")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting FAQ indexer",
		zap.String("config", *configPath),
		zap.String("embedding_provider", cfg.Embeddings.Provider))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	embedder, err := buildEmbedder(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize embedding service", zap.Error(err))
	}
	defer embedder.Close()

	store, err := faq.NewVectorStore(cfg.FAQ, embedder, log)
	if err != nil {
		log.Fatal("Failed to initialize FAQ store", zap.Error(err))
	}
	defer store.Close()

	if *showStats {
		count, err := store.Count(ctx)
		if err != nil {
			log.Fatal("Failed to read index statistics", zap.Error(err))
		}
		fmt.Printf("Indexed FAQ snippets: %d\n", count)
		return
	}

	pipeline := etl.NewPipeline(store, &etl.Config{
		BatchSize:      *batchSize,
		ValidateData:   true,
		ProgressReport: 100,
	}, log)

	var result *etl.ProcessingResult
	if *seedBuiltin {
		result, err = pipeline.SeedBuiltin(ctx)
	} else {
		if _, statErr := os.Stat(*inputFile); os.IsNotExist(statErr) {
			log.Fatal("Input file does not exist", zap.String("file", *inputFile))
		}
		result, err = pipeline.ProcessFile(ctx, *inputFile)
	}
	if err != nil {
		log.Fatal("Indexing failed", zap.Error(err))
	}

	log.Info("Indexing completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("duplicates", result.Duplicates),
		zap.Duration("total_duration", result.Duration),
		zap.Duration("database_time", result.DatabaseTime))

	if len(result.Errors) > 0 {
		log.Warn("Indexing completed with errors", zap.Strings("errors", result.Errors))
	}
}

func buildEmbedder(ctx context.Context, cfg *config.Config, log *logger.Logger) (embeddings.Service, error) {
	switch cfg.Embeddings.Provider {
	case "genai":
		return embeddings.NewGenAIService(ctx, cfg.Embeddings.APIKey, cfg.Embeddings.Model, log.Logger)
	default:
		return embeddings.NewHashService(log.Logger), nil
	}
}
