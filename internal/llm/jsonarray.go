package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var reFencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// ParseRecordArray recovers a JSON array of records from free-form model
// output. Recovery order:
//
//  1. the interior of a ```json fenced block, when one is present;
//  2. the full text as-is;
//  3. the slice from the first '[' to the last ']', when the text has prose
//     around an array;
//  4. bracket coercion: a candidate that does not already start with '[' or
//     end with ']' gains the missing bracket (tolerates a bare list body or a
//     single object).
//
// Coercion never touches a candidate that already carries the bracket on that
// side, so an already-wrapped but malformed array is reported as a parse
// error instead of being double-wrapped.
func ParseRecordArray(raw string) ([]Record, error) {
	candidate := raw
	if m := reFencedJSON.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, fmt.Errorf("empty response")
	}

	if recs, err := parseArray(candidate); err == nil {
		return recs, nil
	}

	// Prose around an array: keep only the outermost bracketed slice.
	if lo, hi := strings.Index(candidate, "["), strings.LastIndex(candidate, "]"); lo >= 0 && hi > lo {
		if recs, err := parseArray(candidate[lo : hi+1]); err == nil {
			return recs, nil
		}
	}

	coerced := candidate
	if !strings.HasPrefix(coerced, "[") {
		coerced = "[" + coerced
	}
	if !strings.HasSuffix(coerced, "]") {
		coerced = coerced + "]"
	}
	recs, err := parseArray(coerced)
	if err != nil {
		return nil, fmt.Errorf("parse record array: %w", err)
	}
	return recs, nil
}

func parseArray(s string) ([]Record, error) {
	var recs []Record
	if err := json.Unmarshal([]byte(s), &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
