package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hybrid fuses vector and bm25 rankings via RRF.
	Hybrid Mode = "hybrid"
	Vector Mode = "vector"
	BM25   Mode = "bm25"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Vector || m == BM25
}
