package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestScoreBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "what is bm25" {
			t.Errorf("query = %q", req.Query)
		}
		if len(req.Texts) != 2 {
			t.Fatalf("texts = %v", req.Texts)
		}

		// Service replies sorted by score, not input order.
		json.NewEncoder(w).Encode([]rerankEntry{
			{Index: 1, Score: 0.95},
			{Index: 0, Score: 0.12},
		})
	}))
	defer server.Close()

	c := NewClient(&Config{URL: server.URL, Logger: zap.NewNop()})
	scores, err := c.ScoreBatch(context.Background(), "what is bm25", []string{"a", "b"})
	if err != nil {
		t.Fatalf("ScoreBatch() error = %v", err)
	}
	if scores[0] != 0.12 || scores[1] != 0.95 {
		t.Errorf("scores = %v, want input order [0.12 0.95]", scores)
	}
}

func TestScoreBatchEmpty(t *testing.T) {
	c := NewClient(&Config{URL: "http://unused", Logger: zap.NewNop()})
	scores, err := c.ScoreBatch(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("ScoreBatch() error = %v", err)
	}
	if scores != nil {
		t.Errorf("scores = %v, want nil", scores)
	}
}

func TestScoreBatchCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]rerankEntry{{Index: 0, Score: 0.5}})
	}))
	defer server.Close()

	c := NewClient(&Config{URL: server.URL, Logger: zap.NewNop()})
	if _, err := c.ScoreBatch(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Fatal("expected error for score count mismatch")
	}
}

func TestScoreBatchServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(&Config{URL: server.URL, Logger: zap.NewNop()})
	if _, err := c.ScoreBatch(context.Background(), "q", []string{"a"}); err == nil {
		t.Fatal("expected error for 503 response")
	}
}
