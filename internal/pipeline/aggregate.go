package pipeline

import (
	"time"

	"github.com/pricebook/ratesheet-extractor/internal/common"
	"github.com/pricebook/ratesheet-extractor/internal/entity"
	"github.com/pricebook/ratesheet-extractor/internal/llm"
)

// Aggregate merges per-chunk results into one dataset. Successful chunks
// contribute their records in chunk order, then in-chunk order; failed chunks
// contribute nothing here (their detail lives in the per-chunk diagnostics the
// processor persists). Every merged record gains an "id" equal to its 1-based
// position in the final order, so ids are dense 1..N by construction.
//
// If no chunk produced a record the whole run is a failure.
func Aggregate(results []llm.ChunkResult, sourceName string, now time.Time) (*entity.Dataset, error) {
	var items []llm.Record
	for _, res := range results {
		if !res.OK() {
			continue
		}
		items = append(items, res.Records...)
	}

	if len(items) == 0 {
		return nil, common.NewAppError("EXTRACTION_EMPTY",
			"failed to extract any items from "+sourceName, common.ErrNoRecords)
	}

	for i, item := range items {
		item["id"] = i + 1
	}

	return &entity.Dataset{
		Items: items,
		Metadata: entity.Metadata{
			Source:          sourceName,
			ExtractedChunks: len(results),
			TotalItems:      len(items),
			ProcessingDate:  now.Format(time.RFC3339),
		},
	}, nil
}
