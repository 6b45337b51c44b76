package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt composes the fixed system message: the model acts as a
// rate-sheet extraction specialist and must reply with a bare JSON array.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a specialized data extraction assistant for supplier rate lists and inventory documents.",
		"Your task is to convert unstructured text from supplier PDFs into structured JSON data.",
		"Carefully analyze the text structure to identify items, their prices, quantities, and other relevant details.",
		"Extract ALL fields present in the data, preserving information exactly as in the original.",
		"Maintain consistent field names across all items.",
		"Include ALL numeric values, units, packaging details, etc.",
		"For each item, extract fields like: product_name, price, mrp, packaging, quantity, unit, and any other fields that appear in the document.",
		"Return ONLY a JSON array of items with their details.",
		"Be thorough: do not skip any items or fields that are present in the original text.",
		"DO NOT include metadata or any other wrapper objects, ONLY the array of items.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps one chunk of extracted text with its positional
// context inside the source document.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is text extracted from a supplier rate list PDF named %q.\n", req.SourceName)
	fmt.Fprintf(&b, "This is chunk %d of %d.\n\n", req.ChunkNum, req.TotalChunks)
	b.WriteString("Please convert it into a JSON array of items. Extract all items with their complete details.\n\n")
	b.WriteString("Here's the extracted text:\n\n")
	b.WriteString(req.ChunkText)
	b.WriteString("\n\nExtract ALL items and their details into a JSON array. Don't summarize or skip any items.\n")
	b.WriteString("IMPORTANT: RETURN ONLY THE JSON ARRAY OF ITEMS, with no wrapper object. ")
	b.WriteString("The response should begin with [ and end with ].")
	return b.String()
}
