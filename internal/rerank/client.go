// Package rerank calls an external cross-encoder scoring service over HTTP
// (text-embeddings-inference style /rerank endpoint).
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client scores query/text pairs via a remote cross-encoder.
type Client struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// Config holds the rerank service settings.
type Config struct {
	URL     string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a rerank client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		logger: cfg.Logger,
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankEntry struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// ScoreBatch returns one relevance score per input text, in input order.
// The service replies sorted by score, so entries are mapped back through
// their index field.
func (c *Client) ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank service returned %d: %s", resp.StatusCode, payload)
	}

	var entries []rerankEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(entries) != len(texts) {
		return nil, fmt.Errorf("rerank returned %d scores for %d texts", len(entries), len(texts))
	}

	scores := make([]float64, len(texts))
	for _, e := range entries {
		if e.Index < 0 || e.Index >= len(texts) {
			return nil, fmt.Errorf("rerank index %d out of range", e.Index)
		}
		scores[e.Index] = e.Score
	}
	return scores, nil
}
