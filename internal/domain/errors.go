package domain

import "errors"

var (
	// ErrInvalidSearchMode signals an unsupported search mode.
	ErrInvalidSearchMode = errors.New("invalid search mode")
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrIndexUnavailable signals that the vector store or embedder cannot be reached.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrRebuildInProgress signals a concurrent lexical index rebuild.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")
	// ErrRerankUnavailable signals a reranker scoring failure.
	ErrRerankUnavailable = errors.New("reranker unavailable")

	// ErrDocumentProcessing signals a document extraction failure.
	ErrDocumentProcessing = errors.New("document processing failed")
	// ErrUnsupportedFormat signals an unrecognized document format.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrGenerationFailed signals an answer generation failure.
	ErrGenerationFailed = errors.New("answer generation failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
