package pdftext

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PageSource is an opaque paginated text source. The concrete PDF reader
// implements it; tests substitute in-memory pages.
type PageSource interface {
	// NumPages returns the page count.
	NumPages() int
	// PageText returns the text of the 1-based page n. An empty page returns "".
	PageText(n int) (string, error)
}

// Extractor pulls a linear text stream out of a paginated document.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Stream concatenates every page's text in page order, one line break per page.
// If any page fails to read, extraction aborts immediately; nothing partial is
// returned.
func (e *Extractor) Stream(src PageSource, name string) (string, error) {
	start := time.Now()
	n := src.NumPages()

	var b strings.Builder
	for i := 1; i <= n; i++ {
		text, err := src.PageText(i)
		if err != nil {
			e.logger.Error("pdftext.extract.page_error",
				"source", name, "page", i, "error", err)
			return "", fmt.Errorf("extract text from %s page %d: %w", name, i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	e.logger.Info("pdftext.extract.ok",
		"source", name,
		"pages", n,
		"chars", b.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b.String(), nil
}

// PDFSource adapts a ledongthuc/pdf reader to PageSource.
type PDFSource struct {
	f      *os.File
	reader *pdf.Reader
}

// OpenPDF opens path and returns a PageSource over its pages. The caller must
// Close it.
func OpenPDF(path string) (*PDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &PDFSource{f: f, reader: reader}, nil
}

func (s *PDFSource) NumPages() int { return s.reader.NumPage() }

func (s *PDFSource) PageText(n int) (string, error) {
	page := s.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (s *PDFSource) Close() error { return s.f.Close() }
