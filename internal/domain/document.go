package domain

// Chunk is a single piece of a split document, carrying the chunk text and
// the per-chunk metadata computed by the chunker.
type Chunk struct {
	Text     string
	Metadata Metadata
}

// Document is a stored corpus entry.
type Document struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32
}

// Corpus is a full snapshot of the stored documents as parallel sequences,
// in a deterministic id order. Index i of each slice refers to the same
// document.
type Corpus struct {
	IDs       []string
	Texts     []string
	Metadatas []Metadata
}

// Len returns the number of documents in the snapshot.
func (c Corpus) Len() int { return len(c.IDs) }

// PageText is the extracted text of a single document page.
type PageText struct {
	PageNumber int
	Text       string
}
