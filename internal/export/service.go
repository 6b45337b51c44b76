package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pricebook/ratesheet-extractor/internal/entity"
	"github.com/pricebook/ratesheet-extractor/internal/llm"
)

// Artifact kinds returned by SaveDataset.
const (
	KindStructured  = "structured"          // canonical nested JSON
	KindTabularFlat = "tabular-flat"        // CSV
	KindSpreadsheet = "tabular-spreadsheet" // XLSX
)

// envelope is the canonical on-disk shape: the dataset wrapped under a single
// structured_data key.
type envelope struct {
	StructuredData *entity.Dataset `json:"structured_data"`
}

// Service writes a dataset to its persisted artifact set.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// SaveDataset writes the canonical structured artifact and, when the dataset
// has records, the two tabular artifacts derived from the same records.
// outputBase is the path without extension; anything already at the computed
// locations is overwritten. Returns artifact kind -> path.
func (s *Service) SaveDataset(ds *entity.Dataset, outputBase string) (map[string]string, error) {
	start := time.Now()
	paths := make(map[string]string, 3)

	jsonPath := outputBase + ".json"
	if err := writeCanonical(jsonPath, ds); err != nil {
		return nil, fmt.Errorf("write structured json: %w", err)
	}
	paths[KindStructured] = jsonPath

	if len(ds.Items) > 0 {
		columns := columnUnion(ds.Items)

		csvPath := outputBase + ".csv"
		if err := writeCSV(csvPath, columns, ds.Items); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
		paths[KindTabularFlat] = csvPath

		xlsxPath := outputBase + ".xlsx"
		if err := writeXLSX(xlsxPath, columns, ds.Items); err != nil {
			return nil, fmt.Errorf("write xlsx: %w", err)
		}
		paths[KindSpreadsheet] = xlsxPath
	}

	s.logger.Info("export.ok",
		"base", outputBase,
		"items", len(ds.Items),
		"artifacts", len(paths),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return paths, nil
}

// LoadDataset reads a canonical structured artifact back into a dataset.
func LoadDataset(path string) (*entity.Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if env.StructuredData == nil {
		return nil, fmt.Errorf("decode dataset: missing structured_data")
	}
	return env.StructuredData, nil
}

func writeCanonical(path string, ds *entity.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope{StructuredData: ds}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// columnUnion collects every field observed across records in first-seen
// record order. Go maps have no key order, so keys new to a record are added
// alphabetically to keep the layout deterministic; "id" is always the first
// column.
func columnUnion(items []llm.Record) []string {
	seen := map[string]bool{"id": true}
	columns := []string{"id"}
	for _, item := range items {
		keys := make([]string, 0, len(item))
		for k := range item {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			columns = append(columns, k)
		}
	}
	return columns
}

func writeCSV(path string, columns []string, items []llm.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		_ = f.Close()
		return err
	}
	row := make([]string, len(columns))
	for _, item := range items {
		for i, col := range columns {
			row[i] = cellString(item[col])
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeXLSX(path string, columns []string, items []llm.Record) error {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}
	for r, item := range items {
		for c, col := range columns {
			v, ok := item[col]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx save: %w", err)
	}
	return f.Close()
}

// cellString renders a loosely typed record value for a delimited cell.
// Missing fields and nulls render as empty cells.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
