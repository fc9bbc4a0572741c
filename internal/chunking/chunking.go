// Package chunking splits document text into overlapping chunks ready for
// embedding. Splitting is deterministic and pure: the same input always
// produces the same chunks.
package chunking

import (
	"fmt"
	"unicode/utf8"

	"github.com/Omar-Sa03/rag-api/internal/domain"
)

// Strategy selects the splitting algorithm.
type Strategy int

const (
	// Recursive splits on a separator cascade and greedily merges pieces.
	Recursive Strategy = iota
	// Semantic splits on sentence boundaries.
	Semantic
	// PageAware splits page by page, tagging each chunk with its page number.
	PageAware
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case Semantic:
		return "semantic"
	case PageAware:
		return "page_aware"
	default:
		return "recursive"
	}
}

// ParseStrategy maps a wire name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "recursive", "":
		return Recursive, nil
	case "semantic":
		return Semantic, nil
	case "page_aware":
		return PageAware, nil
	default:
		return 0, fmt.Errorf("unknown chunking strategy %q", name)
	}
}

// MetadataKeyPageTexts carries per-page extraction output ([]domain.PageText)
// through document metadata into the page-aware splitter. It is in-memory
// only and never persisted.
const MetadataKeyPageTexts = "page_texts"

// Chunker splits text according to a fixed strategy and size parameters.
type Chunker struct {
	strategy Strategy
	size     int
	overlap  int
}

// New creates a chunker. Size is the target chunk length and overlap the
// maximum carry-over between adjacent chunks, both in runes.
func New(strategy Strategy, size, overlap int) *Chunker {
	return &Chunker{strategy: strategy, size: size, overlap: overlap}
}

// Strategy returns the configured splitting strategy.
func (c *Chunker) Strategy() Strategy { return c.strategy }

// Chunk splits text into chunks. Each chunk carries computed metadata
// (chunk_index, chunk_size, total_chunks, chunking_strategy, and page_number
// for page-aware splits) with the caller's base metadata merged on top, so a
// caller-supplied key overrides the computed one. Empty or whitespace-only
// input yields an empty slice.
func (c *Chunker) Chunk(text string, base domain.Metadata) []domain.Chunk {
	switch c.strategy {
	case Semantic:
		return annotate(c.splitSemantic(text), c.strategy, base)
	case PageAware:
		return c.chunkPages(text, base)
	default:
		return annotate(c.splitRecursive(text), c.strategy, base)
	}
}

// annotate wraps raw split texts into chunks with computed metadata. The base
// metadata is merged last and wins on key collisions.
func annotate(texts []string, strategy Strategy, base domain.Metadata) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, t := range texts {
		md := domain.Metadata{
			"chunk_index":       i,
			"chunk_size":        utf8.RuneCountInString(t),
			"total_chunks":      len(texts),
			"chunking_strategy": strategy.String(),
		}
		chunks = append(chunks, domain.Chunk{Text: t, Metadata: md.Merge(base)})
	}
	return chunks
}
