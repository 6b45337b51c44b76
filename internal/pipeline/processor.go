package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pricebook/ratesheet-extractor/internal/chunk"
	"github.com/pricebook/ratesheet-extractor/internal/common"
	"github.com/pricebook/ratesheet-extractor/internal/entity"
	"github.com/pricebook/ratesheet-extractor/internal/export"
	"github.com/pricebook/ratesheet-extractor/internal/llm"
	"github.com/pricebook/ratesheet-extractor/internal/pdftext"
)

// Config holds windowing and layout settings for the processor.
type Config struct {
	MaxLen    int // max chunk length in bytes
	Overlap   int // bytes re-included from the previous chunk
	Workers   int // concurrent chunk extractions; 1 = strictly sequential
	OutputDir string
}

// Processor coordinates text extraction, chunking, per-chunk LLM extraction,
// aggregation and persistence for one document at a time.
type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Text      *pdftext.Extractor
	Extractor llm.ChunkExtractor
	Exporter  *export.Service
}

// Result reports one pipeline run. On failure, TextPath/DiagnosticPaths/
// ErrorPath reference whatever was persisted before the run died, so an
// operator can descend into the per-chunk outcomes.
type Result struct {
	OutputDir       string
	TextPath        string
	Artifacts       map[string]string
	Dataset         *entity.Dataset
	DiagnosticPaths []string
	ErrorPath       string
}

func NewProcessor(logger *slog.Logger, cfg Config, text *pdftext.Extractor, ex llm.ChunkExtractor, exp *export.Service) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = chunk.DefaultMaxLen
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = chunk.DefaultOverlap
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "processed_data"
	}
	return &Processor{Logger: logger, Cfg: cfg, Text: text, Extractor: ex, Exporter: exp}
}

// ProcessPDF opens the PDF at path and runs the full pipeline on it.
func (p *Processor) ProcessPDF(ctx context.Context, pdfPath string) (*Result, error) {
	src, err := pdftext.OpenPDF(pdfPath)
	if err != nil {
		return nil, common.NewAppError("SOURCE_READ",
			fmt.Sprintf("open %s: %v", filepath.Base(pdfPath), err), common.ErrSourceRead)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			p.Logger.Warn("pipeline.source_close_error", "path", pdfPath, "error", cerr)
		}
	}()
	return p.ProcessSource(ctx, src, filepath.Base(pdfPath))
}

// ProcessSource runs the pipeline on an already-open paginated source.
// sourceName is the display name used in prompts, metadata and file names.
func (p *Processor) ProcessSource(ctx context.Context, src pdftext.PageSource, sourceName string) (*Result, error) {
	start := time.Now()

	// 1) Linear text stream. A read failure is fatal and persists nothing.
	stream, err := p.Text.Stream(src, sourceName)
	if err != nil {
		return nil, common.NewAppError("SOURCE_READ", err.Error(), common.ErrSourceRead)
	}
	if strings.TrimSpace(stream) == "" {
		return nil, common.NewAppError("SOURCE_READ",
			fmt.Sprintf("failed to extract text from %s", sourceName), common.ErrSourceRead)
	}

	// 2) Per-run output directory: <base>_<timestamp>.
	base := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	runDir := filepath.Join(p.Cfg.OutputDir, fmt.Sprintf("%s_%s", base, time.Now().Format("20060102_150405")))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, common.NewAppError("PERSISTENCE", "create run directory", err)
	}
	res := &Result{OutputDir: runDir}

	textPath := filepath.Join(runDir, base+"_extracted_text.txt")
	if err := os.WriteFile(textPath, []byte(stream), 0o644); err != nil {
		return res, common.NewAppError("PERSISTENCE", "save extracted text", err)
	}
	res.TextPath = textPath

	// 3) Bounded, overlapping windows.
	chunks := chunk.Split(stream, p.Cfg.MaxLen, p.Cfg.Overlap)
	p.Logger.Info("pipeline.chunked",
		"source", sourceName, "chars", len(stream), "chunks", len(chunks))

	// 4) One extraction outcome per chunk; failures are data, not faults.
	results := p.extractAll(ctx, chunks, sourceName, p.Cfg.Workers)

	// One diagnostic file per chunk, success or failure, for offline audit.
	for _, cr := range results {
		diagPath := filepath.Join(runDir, fmt.Sprintf("%s_chunk_%d_result.json", base, cr.ChunkNum))
		if err := writeJSON(diagPath, cr); err != nil {
			return res, common.NewAppError("PERSISTENCE", "save chunk diagnostic", err)
		}
		res.DiagnosticPaths = append(res.DiagnosticPaths, diagPath)
		if !cr.OK() {
			p.Logger.Warn("pipeline.chunk.failed", "source", sourceName, "chunk", cr.ChunkNum, "error", cr.Err)
		}
	}

	// 5) Merge in chunk order and assign ids.
	ds, err := Aggregate(results, sourceName, time.Now().UTC())
	if err != nil {
		errPath := filepath.Join(runDir, base+"_error.json")
		report := map[string]any{"error": err.Error(), "chunk_results": results}
		if werr := writeJSON(errPath, report); werr != nil {
			p.Logger.Error("pipeline.error_report_failed", "source", sourceName, "error", werr)
		} else {
			res.ErrorPath = errPath
		}
		return res, err
	}
	res.Dataset = ds

	// 6) Canonical + tabular artifacts.
	artifacts, err := p.Exporter.SaveDataset(ds, filepath.Join(runDir, base+"_structured"))
	if err != nil {
		return res, common.NewAppError("PERSISTENCE", "save structured artifacts", err)
	}
	res.Artifacts = artifacts

	p.Logger.Info("pipeline.ok",
		"source", sourceName,
		"chunks", len(chunks),
		"items", ds.Metadata.TotalItems,
		"output_dir", runDir,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
