package httpapi

import (
	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

const previewLength = 150

// queryRequest is the POST /api/v1/query body. Pointer fields distinguish
// "absent" from zero so defaults can apply.
type queryRequest struct {
	Q             string `json:"q"`
	Mode          string `json:"mode"`
	NResults      *int   `json:"n_results"`
	Rerank        *bool  `json:"rerank"`
	IncludeScores *bool  `json:"include_scores"`
}

type sourceItem struct {
	ID          string          `json:"id"`
	Text        string          `json:"text"`
	TextPreview string          `json:"text_preview"`
	Metadata    domain.Metadata `json:"metadata"`
	Rank        int             `json:"rank"`

	SimilarityScore *float64 `json:"similarity_score,omitempty"`
	BM25Score       *float64 `json:"bm25_score,omitempty"`
	RRFScore        *float64 `json:"rrf_score,omitempty"`
	RerankScore     *float64 `json:"rerank_score,omitempty"`
}

type queryResponse struct {
	Query        string       `json:"query"`
	Answer       string       `json:"answer"`
	Sources      []sourceItem `json:"sources"`
	SearchMode   string       `json:"search_mode"`
	Reranked     bool         `json:"reranked"`
	TotalResults int          `json:"total_results"`
}

type addRequest struct {
	Text     string `json:"text"`
	Chunk    *bool  `json:"chunk"`
	Strategy string `json:"strategy"`
}

type addResponse struct {
	IDs          []string `json:"ids"`
	Chunks       int      `json:"chunks"`
	IndexRebuilt bool     `json:"index_rebuilt"`
}

type uploadResponse struct {
	Filename     string   `json:"filename"`
	IDs          []string `json:"ids"`
	Chunks       int      `json:"chunks"`
	IndexRebuilt bool     `json:"index_rebuilt"`
}

type rebuildResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

type infoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type healthResponse struct {
	Status           string            `json:"status"`
	Checks           map[string]string `json:"checks"`
	IndexedDocuments int               `json:"indexed_documents"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// sourceFromResult flattens a ranked result into the wire shape. Provenance
// scores are emitted only when present and requested.
func sourceFromResult(r result.Result, includeScores bool) sourceItem {
	item := sourceItem{
		ID:          r.ID(),
		Text:        r.Text(),
		TextPreview: preview(r.Text()),
		Metadata:    r.Metadata(),
		Rank:        r.Rank(),
	}
	if !includeScores {
		return item
	}
	if v, ok := r.SimilarityScore(); ok {
		item.SimilarityScore = &v
	}
	if v, ok := r.BM25Score(); ok {
		item.BM25Score = &v
	}
	if v, ok := r.RRFScore(); ok {
		item.RRFScore = &v
	}
	if v, ok := r.RerankScore(); ok {
		item.RerankScore = &v
	}
	return item
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
