package store

import (
	"context"
	"errors"
	"testing"

	"github.com/pricebook/ratesheet-extractor/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCurrentDatasetLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CurrentDataset(ctx, "sess-1"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("fresh session must report ErrNotFound, got %v", err)
	}

	if err := s.SetCurrentDataset(ctx, "sess-1", "/out/a.json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.CurrentDataset(ctx, "sess-1")
	if err != nil || got != "/out/a.json" {
		t.Fatalf("get: %q %v", got, err)
	}

	// a newer run replaces the pointer
	if err := s.SetCurrentDataset(ctx, "sess-1", "/out/b.json"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.CurrentDataset(ctx, "sess-1")
	if got != "/out/b.json" {
		t.Fatalf("expect updated path, got %q", got)
	}

	// sessions are isolated
	if _, err := s.CurrentDataset(ctx, "sess-2"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("other sessions must stay empty, got %v", err)
	}
}

func TestShortlistAddRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.Shortlist(ctx, "sess-1")
	if err != nil {
		t.Fatalf("empty shortlist: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expect empty shortlist, got %v", ids)
	}

	for _, id := range []int64{3, 1, 3} { // duplicate add is a no-op
		if err := s.AddShortlist(ctx, "sess-1", id); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	ids, _ = s.Shortlist(ctx, "sess-1")
	if len(ids) != 2 {
		t.Fatalf("expect 2 distinct ids, got %v", ids)
	}

	if err := s.RemoveShortlist(ctx, "sess-1", 3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveShortlist(ctx, "sess-1", 99); err != nil {
		t.Fatalf("removing a missing id must be a no-op: %v", err)
	}
	ids, _ = s.Shortlist(ctx, "sess-1")
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expect [1], got %v", ids)
	}

	// other sessions unaffected
	ids, _ = s.Shortlist(ctx, "sess-2")
	if len(ids) != 0 {
		t.Fatalf("expect empty shortlist for other session, got %v", ids)
	}
}

func TestRecordRunNeverFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.RecordRun(ctx, RunRecord{
		ID:         "run-1",
		SourceName: "rates.pdf",
		OutputDir:  "/out/rates_20250825_120000",
		DataPath:   "/out/rates_20250825_120000/rates_structured.json",
		ItemCount:  12,
		Status:     "ok",
	})
	// duplicate id: logged, not fatal
	s.RecordRun(ctx, RunRecord{ID: "run-1", SourceName: "rates.pdf", Status: "failed"})
}
