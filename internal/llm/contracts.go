package llm

import "context"

// Record is one extracted catalog entry. Rate sheets carry no fixed field set,
// so records stay loosely typed maps; the aggregator adds the "id" key.
type Record map[string]any

// ExtractRequest carries one chunk of rate-sheet text plus its positional
// context within the source document.
type ExtractRequest struct {
	ChunkText   string
	SourceName  string
	ChunkNum    int // 1-based
	TotalChunks int
}

// ChunkResult is the outcome of one chunk's extraction. Exactly one of
// Records/Err is meaningful; RawResponse is kept in both cases for post-mortem
// diagnosis.
type ChunkResult struct {
	ChunkNum    int      `json:"chunk"`
	Records     []Record `json:"items,omitempty"`
	RawResponse string   `json:"llm_raw_response,omitempty"`
	Err         string   `json:"error,omitempty"`
}

func (r ChunkResult) OK() bool { return r.Err == "" }

// ChunkExtractor is the interface the pipeline depends on.
type ChunkExtractor interface {
	ExtractChunk(ctx context.Context, req ExtractRequest) ChunkResult
}
