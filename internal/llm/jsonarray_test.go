package llm

import (
	"strings"
	"testing"
)

func TestParseRecordArrayFencedBlock(t *testing.T) {
	raw := "Here is the data you asked for:\n```json\n[{\"product_name\":\"Widget\",\"price\":\"10\"}]\n```\nLet me know if you need anything else."
	recs, err := ParseRecordArray(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expect 1 record, got %d", len(recs))
	}
	if recs[0]["product_name"] != "Widget" || recs[0]["price"] != "10" {
		t.Fatalf("unexpected record %v", recs[0])
	}
}

func TestParseRecordArrayPlainArray(t *testing.T) {
	recs, err := ParseRecordArray(`[{"a":"1"},{"b":2}]`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expect 2 records, got %d", len(recs))
	}
	if recs[1]["b"] != float64(2) {
		t.Fatalf("numeric field should decode as float64, got %T", recs[1]["b"])
	}
}

// A bare object is coerced into a one-element array.
func TestParseRecordArraySingleObjectCoerced(t *testing.T) {
	recs, err := ParseRecordArray(`{"product_name":"Widget"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 1 || recs[0]["product_name"] != "Widget" {
		t.Fatalf("unexpected records %v", recs)
	}
}

// A bare list body (objects without the enclosing brackets) is coerced.
func TestParseRecordArrayBareListBody(t *testing.T) {
	recs, err := ParseRecordArray(`{"a":"1"},{"a":"2"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expect 2 records, got %d", len(recs))
	}
}

// Prose on both sides of an unfenced array: the outermost bracketed slice wins.
func TestParseRecordArrayProseAroundArray(t *testing.T) {
	raw := "Sure! The extracted items are: [{\"sku\":\"A-1\"}] — total 1 item."
	recs, err := ParseRecordArray(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 1 || recs[0]["sku"] != "A-1" {
		t.Fatalf("unexpected records %v", recs)
	}
}

// An already-bracketed but malformed array must fail rather than get a second
// pair of brackets.
func TestParseRecordArrayMalformedNotDoubleWrapped(t *testing.T) {
	_, err := ParseRecordArray(`[{"a":"1",}]`)
	if err == nil {
		t.Fatal("expect parse error for malformed array")
	}
	if strings.Contains(err.Error(), "[[") {
		t.Fatalf("error should not show double wrapping: %v", err)
	}
}

func TestParseRecordArrayEmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   \n\t "} {
		if _, err := ParseRecordArray(raw); err == nil {
			t.Fatalf("expect error for empty input %q", raw)
		}
	}
}

func TestParseRecordArrayEmptyArray(t *testing.T) {
	recs, err := ParseRecordArray("```json\n[]\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expect 0 records, got %d", len(recs))
	}
}

func TestParseRecordArrayNonObjectElements(t *testing.T) {
	if _, err := ParseRecordArray(`[1,2,3]`); err == nil {
		t.Fatal("expect error for non-object array elements")
	}
}
