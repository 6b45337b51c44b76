package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricebook/ratesheet-extractor/internal/llm"
)

// ExtractChunk implements llm.ChunkExtractor over text-only chat/completions.
// Failures never surface as errors; they come back as a ChunkResult carrying
// the failure description and whatever raw response was available. A failed
// chunk simply contributes zero records, and there is no chunk-level retry.
func (c *Client) ExtractChunk(ctx context.Context, req llm.ExtractRequest) llm.ChunkResult {
	rid := uuid.New().String()
	start := time.Now()
	res := llm.ChunkResult{ChunkNum: req.ChunkNum}

	if c.cfg.APIKey == "" {
		res.Err = "no API key available for LLM processing"
		return res
	}
	if strings.TrimSpace(req.ChunkText) == "" {
		res.Err = "empty text chunk"
		return res
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"source", req.SourceName,
		"chunk", req.ChunkNum,
		"total_chunks", req.TotalChunks,
		"text_len", len(req.ChunkText),
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "chunk", req.ChunkNum, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		res.Err = fmt.Sprintf("error during API call for chunk %d: %v", req.ChunkNum, err)
		return res
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		res.Err = fmt.Sprintf("decode completion response for chunk %d: %v", req.ChunkNum, err)
		res.RawResponse = string(raw)
		return res
	}
	if len(cc.Choices) == 0 {
		res.Err = fmt.Sprintf("no choices in completion response for chunk %d", req.ChunkNum)
		res.RawResponse = string(raw)
		return res
	}
	content := cc.Choices[0].Message.Content
	res.RawResponse = content

	records, err := llm.ParseRecordArray(content)
	if err != nil {
		c.logger.Error("llm.extract.parse_error",
			"req_id", rid, "chunk", req.ChunkNum, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		res.Err = fmt.Sprintf("failed to parse JSON from LLM response for chunk %d: %v", req.ChunkNum, err)
		return res
	}

	// Structural check only: an array of flat objects. Field contents stay
	// document-specific.
	if b, err := json.Marshal(records); err == nil {
		if verr := llm.ValidateJSONAgainstSchema(llm.BuildItemsArraySchema(), b); verr != nil {
			c.logger.Warn("llm.extract.shape_warning",
				"req_id", rid, "chunk", req.ChunkNum, "error", verr)
		}
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"chunk", req.ChunkNum,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	res.Records = records
	return res
}
