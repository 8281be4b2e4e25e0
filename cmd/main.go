package main

import (
	"log"

	"fabula/api"
	"fabula/chunking"
	"fabula/config"
	"fabula/extractor"
	"fabula/ingest"
	"fabula/narrative"
	"fabula/pkg/boltdb"

	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

func main() {
	// =========
	// Config
	// =========
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// =========
	// Logging
	// =========
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	// =========
	// BoltDB store
	// =========
	db, err := boltdb.NewClient(cfg.BoltPath)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer db.Close()

	docStore := boltdb.NewDocumentStore(db)
	chunkStore := boltdb.NewChunkStore(db)

	// =========
	// Generative model
	// =========
	// The model is process-wide state, loaded once; failure here is a
	// startup failure, unlike per-call generation faults which fall back.
	model, err := ollama.New(
		ollama.WithServerURL(cfg.OllamaURL),
		ollama.WithModel(cfg.OllamaModel),
	)
	if err != nil {
		log.Fatalf("Failed to initialize generative model: %v", err)
	}

	// =========
	// Narrative transformer
	// =========
	templates := narrative.DefaultTemplates()
	if cfg.FramingsPath != "" {
		templates, err = narrative.LoadTemplates(cfg.FramingsPath)
		if err != nil {
			log.Fatalf("Failed to load framing templates: %v", err)
		}
	}

	transformer, err := narrative.NewTransformer(model, templates, logger)
	if err != nil {
		log.Fatalf("Failed to initialize narrative transformer: %v", err)
	}

	// =========
	// Ingestion pipeline
	// =========
	pipeline := ingest.NewPipeline(
		extractor.NewPDFExtractor(logger),
		chunking.NewChunker(cfg.NoiseFloor, logger),
		docStore,
		chunkStore,
		logger,
	)

	// =========
	// API server
	// =========
	server := api.NewServer(docStore, chunkStore, pipeline, transformer, cfg.DataDir, cfg.AppPort, logger)
	if err := server.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
