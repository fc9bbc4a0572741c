// Package extract pulls plain text out of uploaded files. Supported formats
// are pdf, docx, markdown, and plain text; anything else is rejected before
// any parsing happens.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/chunking"
	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// Extracted is the result of processing one uploaded file. Metadata carries
// provenance fields and, for paginated formats, the per-page texts the
// page-aware chunker consumes.
type Extracted struct {
	Text     string
	Metadata domain.Metadata
}

// Processor dispatches uploads to a format-specific extractor based on the
// file extension.
type Processor struct {
	logger *zap.Logger
}

// NewProcessor creates a document processor.
func NewProcessor(logger *zap.Logger) *Processor {
	return &Processor{logger: logger}
}

// Process extracts text and provenance metadata from the uploaded file.
// Unknown extensions fail with domain.ErrUnsupportedFormat; a supported file
// that yields no text fails with domain.ErrDocumentProcessing.
func (p *Processor) Process(filename string, data []byte) (Extracted, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text  string
		pages []domain.PageText
		err   error
	)
	switch ext {
	case ".pdf":
		text, pages, err = p.extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".md", ".txt":
		text = string(data)
	default:
		return Extracted{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Extracted{}, fmt.Errorf("%w: %s: %w", domain.ErrDocumentProcessing, filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return Extracted{}, fmt.Errorf("%w: %s: no extractable text", domain.ErrDocumentProcessing, filename)
	}

	meta := domain.Metadata{
		"source":       filename,
		"file_type":    strings.TrimPrefix(ext, "."),
		"processed_at": time.Now().UTC().Format(time.RFC3339),
	}
	if len(pages) > 0 {
		meta["pages"] = len(pages)
		meta[chunking.MetadataKeyPageTexts] = pages
	}

	p.logger.Debug("document processed",
		zap.String("file", filename),
		zap.Int("bytes", len(data)),
		zap.Int("pages", len(pages)),
	)
	return Extracted{Text: text, Metadata: meta}, nil
}
