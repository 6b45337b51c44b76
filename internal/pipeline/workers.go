package pipeline

import (
	"context"
	"sync"

	"github.com/pricebook/ratesheet-extractor/internal/chunk"
	"github.com/pricebook/ratesheet-extractor/internal/llm"
)

// extractAll runs every chunk through the extractor. With workers == 1 the
// chunks are processed strictly in order, one blocking call at a time. With
// more workers, independent chunks run concurrently; results land in a slice
// indexed by chunk position, so the merge order (and therefore id assignment)
// is identical either way.
func (p *Processor) extractAll(ctx context.Context, chunks []chunk.Chunk, sourceName string, workers int) []llm.ChunkResult {
	results := make([]llm.ChunkResult, len(chunks))

	if workers <= 1 || len(chunks) == 1 {
		for _, c := range chunks {
			results[c.Index] = p.Extractor.ExtractChunk(ctx, p.request(c, sourceName, len(chunks)))
		}
		return results
	}

	if workers > len(chunks) {
		workers = len(chunks)
	}
	jobs := make(chan chunk.Chunk)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for c := range jobs {
				res := p.Extractor.ExtractChunk(ctx, p.request(c, sourceName, len(chunks)))
				results[c.Index] = res
				p.Logger.Info("pipeline.chunk.done",
					"worker_id", workerID, "chunk", c.Index+1, "ok", res.OK())
			}
		}(i + 1)
	}
	for _, c := range chunks {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
	return results
}

func (p *Processor) request(c chunk.Chunk, sourceName string, total int) llm.ExtractRequest {
	return llm.ExtractRequest{
		ChunkText:   c.Text,
		SourceName:  sourceName,
		ChunkNum:    c.Index + 1,
		TotalChunks: total,
	}
}
