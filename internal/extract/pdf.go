package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// extractPDF reads a pdf page by page so downstream chunking can preserve
// page boundaries. When per-page extraction yields nothing it falls back to
// a whole-document pass, returning flat text without page metadata.
func (p *Processor) extractPDF(data []byte) (string, []domain.PageText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := readPages(reader)
	if len(pages) > 0 {
		parts := make([]string, len(pages))
		for i, pg := range pages {
			parts[i] = pg.Text
		}
		return strings.Join(parts, "\n\n"), pages, nil
	}

	p.logger.Warn("per-page pdf extraction empty, falling back to flat text")
	text, err := flatPDFText(reader)
	if err != nil {
		return "", nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return text, nil, nil
}

// readPages collects non-blank page texts. The pdf library panics on some
// malformed content streams, so each page is parsed behind a recover guard
// and bad pages are skipped rather than failing the whole file.
func readPages(reader *pdf.Reader) []domain.PageText {
	var pages []domain.PageText
	for num := 1; num <= reader.NumPage(); num++ {
		text := func() (out string) {
			defer func() {
				if r := recover(); r != nil {
					out = ""
				}
			}()
			page := reader.Page(num)
			if page.V.IsNull() {
				return ""
			}
			content, err := page.GetPlainText(nil)
			if err != nil {
				return ""
			}
			return content
		}()
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.PageText{PageNumber: num, Text: text})
	}
	return pages
}

func flatPDFText(reader *pdf.Reader) (_ string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()
	body, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
