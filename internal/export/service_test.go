package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/pricebook/ratesheet-extractor/internal/entity"
	"github.com/pricebook/ratesheet-extractor/internal/llm"
)

func sampleDataset() *entity.Dataset {
	return &entity.Dataset{
		Items: []llm.Record{
			{"id": 1, "product_name": "Widget", "price": "10.00"},
			{"id": 2, "product_name": "Gadget", "price": "20.00", "packaging": "case of 24"},
			{"id": 3, "product_name": "Gizmo", "mrp": 35.5},
		},
		Metadata: entity.Metadata{
			Source:          "rates.pdf",
			ExtractedChunks: 2,
			TotalItems:      3,
			ProcessingDate:  "2025-08-25T12:00:00Z",
		},
	}
}

func TestSaveDatasetWritesAllKinds(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "rates_structured")

	paths, err := s.SaveDataset(sampleDataset(), base)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := map[string]string{
		KindStructured:  base + ".json",
		KindTabularFlat: base + ".csv",
		KindSpreadsheet: base + ".xlsx",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("unexpected artifact map %v", paths)
	}
	for kind, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("artifact %s missing: %v", kind, err)
		}
	}
}

func TestSaveDatasetEmptyItemsSkipsTabular(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "empty_structured")

	ds := &entity.Dataset{Metadata: entity.Metadata{Source: "x.pdf"}}
	paths, err := s.SaveDataset(ds, base)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(paths) != 1 || paths[KindStructured] == "" {
		t.Fatalf("only the structured artifact is written for empty datasets: %v", paths)
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "rt_structured")

	ds := sampleDataset()
	paths, err := s.SaveDataset(ds, base)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadDataset(paths[KindStructured])
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Metadata != ds.Metadata {
		t.Fatalf("metadata changed across round trip: %+v vs %+v", loaded.Metadata, ds.Metadata)
	}
	// Numeric values decode as float64; compare through JSON for equivalence.
	a, _ := json.Marshal(ds.Items)
	b, _ := json.Marshal(loaded.Items)
	if string(a) != string(b) {
		t.Fatalf("items changed across round trip:\n%s\n%s", a, b)
	}
}

func TestCanonicalEnvelopeShape(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "env_structured")
	paths, err := s.SaveDataset(sampleDataset(), base)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, _ := os.ReadFile(paths[KindStructured])
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	sd, ok := env["structured_data"].(map[string]any)
	if !ok {
		t.Fatalf("canonical artifact must nest under structured_data: %v", env)
	}
	if _, ok := sd["items"]; !ok {
		t.Fatal("missing items")
	}
	if _, ok := sd["metadata"]; !ok {
		t.Fatal("missing metadata")
	}
}

func TestCSVColumnUnionAndEmptyCells(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "csv_structured")
	paths, err := s.SaveDataset(sampleDataset(), base)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(paths[KindTabularFlat])
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	header := rows[0]
	want := []string{"id", "price", "product_name", "packaging", "mrp"}
	if !reflect.DeepEqual(header, want) {
		t.Fatalf("column union order: got %v want %v", header, want)
	}

	if len(rows) != 4 {
		t.Fatalf("expect header + 3 rows, got %d", len(rows))
	}
	// row 1 has no packaging/mrp: empty cells
	if rows[1][3] != "" || rows[1][4] != "" {
		t.Fatalf("missing fields must render as empty cells: %v", rows[1])
	}
	if rows[3][4] != "35.5" {
		t.Fatalf("numeric cell rendering: %v", rows[3])
	}
}

func TestXLSXMatchesColumns(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "xlsx_structured")
	paths, err := s.SaveDataset(sampleDataset(), base)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := excelize.OpenFile(paths[KindSpreadsheet])
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expect header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[1][2] != "Widget" {
		t.Fatalf("unexpected sheet contents %v", rows[:2])
	}
}

func TestSaveDatasetOverwrites(t *testing.T) {
	s := NewService(nil)
	base := filepath.Join(t.TempDir(), "ow_structured")

	if _, err := s.SaveDataset(sampleDataset(), base); err != nil {
		t.Fatalf("first save: %v", err)
	}
	ds := sampleDataset()
	ds.Items = ds.Items[:1]
	ds.Metadata.TotalItems = 1
	if _, err := s.SaveDataset(ds, base); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := LoadDataset(base + ".json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Items) != 1 {
		t.Fatalf("second run must overwrite the first, got %d items", len(loaded.Items))
	}
}
