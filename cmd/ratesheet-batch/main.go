package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pricebook/ratesheet-extractor/internal/common"
	"github.com/pricebook/ratesheet-extractor/internal/export"
	"github.com/pricebook/ratesheet-extractor/internal/llm/openai"
	"github.com/pricebook/ratesheet-extractor/internal/pdftext"
	"github.com/pricebook/ratesheet-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir = flag.String("dir", "", "directory of rate-sheet PDFs to process (required)")
		out = flag.String("out", "", "output directory (defaults to OUTPUT_DIR or processed_data)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *out != "" {
		cfg.Storage.OutputDir = *out
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

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

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Error("failed to read input directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var processed, failed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		path := filepath.Join(*dir, entry.Name())
		result, err := proc.ProcessPDF(ctx, path)
		if err != nil {
			failed++
			logger.Error("batch.file_failed", "file", entry.Name(), "error", err)
			continue
		}
		processed++
		logger.Info("batch.file_ok",
			"file", entry.Name(),
			"items", result.Dataset.Metadata.TotalItems,
			"output_dir", result.OutputDir,
		)
	}

	logger.Info("batch.done", "processed", processed, "failed", failed)
	if processed == 0 && failed > 0 {
		os.Exit(1)
	}
}
