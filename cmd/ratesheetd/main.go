package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/pricebook/ratesheet-extractor/internal/common"
	"github.com/pricebook/ratesheet-extractor/internal/export"
	"github.com/pricebook/ratesheet-extractor/internal/llm/openai"
	"github.com/pricebook/ratesheet-extractor/internal/pdftext"
	"github.com/pricebook/ratesheet-extractor/internal/pipeline"
	"github.com/pricebook/ratesheet-extractor/internal/server"
	"github.com/pricebook/ratesheet-extractor/internal/store"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" {
		// Not fatal: uploads will fail per-chunk with a defined failure mode,
		// matching the pipeline's missing-credential contract.
		logger.Warn("OPENAI_API_KEY not set; extraction requests will fail")
	}

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	st, err := store.Open(cfg.Storage.StateDBPath, logger)
	if err != nil {
		logger.Error("failed to open state db", "path", cfg.Storage.StateDBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("state db close error", "error", cerr)
		}
	}()

	client := openai.NewClient(openai.Config{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	proc := pipeline.NewProcessor(logger, pipeline.Config{
		MaxLen:    cfg.Chunk.MaxLen,
		Overlap:   cfg.Chunk.Overlap,
		Workers:   cfg.Chunk.Workers,
		OutputDir: cfg.Storage.OutputDir,
	}, pdftext.NewExtractor(logger), client, export.NewService(logger))

	srv := server.New(logger, proc, st, cfg.Storage.UploadDir, cfg.Server.MaxUploadSize)

	logger.Info("ratesheetd listening", "addr", cfg.Server.Addr)
	if err := srv.Router().Run(cfg.Server.Addr); err != nil {
		logger.Error("http serve error", "error", err)
		os.Exit(1)
	}
}
