package chunk

import "strings"

const (
	DefaultMaxLen  = 8000
	DefaultOverlap = 500
)

// Chunk is a contiguous window of the full text stream. Start is its byte
// offset in the original stream; adjacent chunks share Overlap bytes of
// identical text.
type Chunk struct {
	Index int // 0-based position in the sequence
	Start int
	Text  string
}

// Split cuts text into windows of at most maxLen bytes, each re-including the
// trailing overlap bytes of its predecessor. When a window would end mid-stream,
// the boundary moves back to just after the last line break past start+overlap,
// so a rate line is not cut in half. If no such break exists the raw boundary
// stands.
//
// Overlap must be smaller than maxLen; each iteration advances start by at
// least one byte, so the sequence is finite for any input.
func Split(text string, maxLen, overlap int) []Chunk {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxLen {
		overlap = maxLen / 2
	}

	if len(text) <= maxLen {
		return []Chunk{{Index: 0, Start: 0, Text: text}}
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + maxLen
		if end >= len(text) {
			chunks = append(chunks, Chunk{Index: len(chunks), Start: start, Text: text[start:]})
			break
		}

		// Prefer ending just after a line break, as long as it stays past the
		// overlap floor.
		if nl := strings.LastIndexByte(text[start:end], '\n'); nl >= 0 && start+nl > start+overlap {
			end = start + nl + 1
		}

		chunks = append(chunks, Chunk{Index: len(chunks), Start: start, Text: text[start:end]})
		start = end - overlap
	}
	return chunks
}
