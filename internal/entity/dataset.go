package entity

import "github.com/pricebook/ratesheet-extractor/internal/llm"

// Metadata describes one completed pipeline run, computed once after merging.
type Metadata struct {
	Source          string `json:"source"`
	ExtractedChunks int    `json:"extracted_chunks"`
	TotalItems      int    `json:"total_items"`
	ProcessingDate  string `json:"processing_date"` // RFC 3339
}

// Dataset is the merged, id-assigned collection of all records extracted from
// one document. Immutable once constructed; owned by the run that produced it.
type Dataset struct {
	Items    []llm.Record `json:"items"`
	Metadata Metadata     `json:"metadata"`
}
