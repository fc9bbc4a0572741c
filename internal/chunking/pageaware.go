package chunking

import (
	"strings"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// chunkPages splits each extracted page independently so every chunk can be
// tagged with its page number, then renumbers chunk_index and total_chunks
// across the whole document. Without page_texts metadata it degrades to a
// plain recursive split.
func (c *Chunker) chunkPages(text string, base domain.Metadata) []domain.Chunk {
	pages, ok := base[MetadataKeyPageTexts].([]domain.PageText)
	if !ok || len(pages) == 0 {
		return annotate(c.splitRecursive(text), Recursive, base)
	}

	inner := New(Recursive, c.size, c.overlap)
	var chunks []domain.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, ch := range inner.Chunk(page.Text, base) {
			ch.Metadata["page_number"] = page.PageNumber
			chunks = append(chunks, ch)
		}
	}

	for i := range chunks {
		chunks[i].Metadata["chunk_index"] = i
		chunks[i].Metadata["total_chunks"] = len(chunks)
		chunks[i].Metadata["chunking_strategy"] = PageAware.String()
	}
	return chunks
}
