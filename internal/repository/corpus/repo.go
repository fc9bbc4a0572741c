// Package corpus persists documents and their embeddings in Redis and runs
// nearest-neighbor queries over them. It is the concrete vector search
// adapter behind the retrieval pipeline.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/db"
	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
)

const (
	keyPrefix = "rag:doc:"
	indexName = "rag:doc:idx"

	fieldContent  = "__content"
	fieldVector   = "__vector"
	fieldMetadata = "__metadata"
)

// Store is the slice of db.Store the repository needs.
type Store interface {
	db.HashStore
	db.IndexManager
	db.Searcher
}

// Repo stores documents as Redis hashes under rag:doc:{id} and serves KNN
// queries via the rag:doc:idx FT index.
type Repo struct {
	store    Store
	embedder domain.Embedder
	dims     int
	logger   *zap.Logger
}

// New creates a corpus repository. dims is the embedding dimensionality used
// for the vector index schema.
func New(store Store, embedder domain.Embedder, dims int, logger *zap.Logger) *Repo {
	return &Repo{store: store, embedder: embedder, dims: dims, logger: logger}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("%w: check index: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldContent, Type: db.IndexFieldText},
			{
				Name:           fieldVector,
				Alias:          "vector",
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      r.dims,
				VectorDistance: db.DistanceCosine,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("%w: create index: %w", domain.ErrIndexUnavailable, err)
	}

	r.logger.Info("vector index created", zap.String("index", indexName))
	return nil
}

// Add persists documents in a single pipelined write. Metadata is cleaned to
// scalars before serialization.
func (r *Repo) Add(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for _, doc := range docs {
		fields, err := docToFields(doc)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
		items = append(items, db.HashSetItem{Key: keyPrefix + doc.ID, Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: store documents: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// ListAll returns the whole corpus as parallel sequences in ascending key
// order, so repeated snapshots of an unchanged corpus are identical.
func (r *Repo) ListAll(ctx context.Context) (domain.Corpus, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return domain.Corpus{}, fmt.Errorf("%w: scan corpus: %w", domain.ErrIndexUnavailable, err)
	}
	if len(keys) == 0 {
		return domain.Corpus{}, nil
	}
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return domain.Corpus{}, fmt.Errorf("%w: read corpus: %w", domain.ErrIndexUnavailable, err)
	}

	corpus := domain.Corpus{
		IDs:       make([]string, 0, len(keys)),
		Texts:     make([]string, 0, len(keys)),
		Metadatas: make([]domain.Metadata, 0, len(keys)),
	}
	for i, fields := range hashes {
		if len(fields) == 0 {
			// Key vanished between SCAN and HGETALL.
			continue
		}
		corpus.IDs = append(corpus.IDs, strings.TrimPrefix(keys[i], keyPrefix))
		corpus.Texts = append(corpus.Texts, fields[fieldContent])
		corpus.Metadatas = append(corpus.Metadatas, fieldsToMetadata(fields))
	}
	return corpus, nil
}

// Query embeds the text and returns the k nearest documents best first.
// Similarity is 1 minus the cosine distance and is deliberately not clamped:
// a negative value still carries ordering information.
func (r *Repo) Query(ctx context.Context, text string, k int) ([]result.Result, error) {
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldContent, fieldMetadata, "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: knn search: %w", domain.ErrIndexUnavailable, err)
	}

	out := make([]result.Result, 0, len(res.Entries))
	for i, entry := range res.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		out = append(out, result.New(id, entry.Fields[fieldContent], fieldsToMetadata(entry.Fields)).
			WithSimilarityScore(1-entry.Distance).
			WithRank(i+1))
	}
	return out, nil
}
