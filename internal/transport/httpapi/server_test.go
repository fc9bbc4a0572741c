package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Omar-Sa03/rag-api/internal/chunking"
	"github.com/Omar-Sa03/rag-api/internal/domain"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/mode"
	"github.com/Omar-Sa03/rag-api/internal/domain/search/result"
	"github.com/Omar-Sa03/rag-api/internal/extract"
	healthuc "github.com/Omar-Sa03/rag-api/internal/usecase/health"
)

// --- Mocks ---

type mockSearcher struct {
	results    []result.Result
	err        error
	rebuildErr error
	lastMode   mode.Mode
	lastN      int
	lastRerank bool
}

func (m *mockSearcher) Search(_ context.Context, _ string, md mode.Mode, n int, rerank bool) ([]result.Result, error) {
	m.lastMode = md
	m.lastN = n
	m.lastRerank = rerank
	return m.results, m.err
}

func (m *mockSearcher) RebuildIndex(_ context.Context) error { return m.rebuildErr }

type mockIngestor struct {
	ids          []string
	err          error
	lastStrategy chunking.Strategy
	lastChunk    bool
	lastSize     int
	lastOverlap  int
}

func (m *mockIngestor) AddText(_ context.Context, _ string, chunk bool, strategy chunking.Strategy) ([]string, error) {
	m.lastChunk = chunk
	m.lastStrategy = strategy
	return m.ids, m.err
}

func (m *mockIngestor) IngestDocument(_ context.Context, _ string, _ domain.Metadata, strategy chunking.Strategy, size, overlap int) ([]string, error) {
	m.lastStrategy = strategy
	m.lastSize = size
	m.lastOverlap = overlap
	return m.ids, m.err
}

type mockProcessor struct {
	extracted extract.Extracted
	err       error
}

func (m *mockProcessor) Process(_ string, _ []byte) (extract.Extracted, error) {
	return m.extracted, m.err
}

type mockAnswers struct {
	answer string
	err    error
}

func (m *mockAnswers) Generate(_ context.Context, _ string, _ []string) (string, error) {
	return m.answer, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestServer(search *mockSearcher, ingest *mockIngestor, processor *mockProcessor, answers AnswerGenerator) *Server {
	return NewServer(search, ingest, processor, answers,
		&mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK}}},
		RateLimits{}, zap.NewNop())
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestQueryHappyPath(t *testing.T) {
	long := strings.Repeat("x", 200)
	search := &mockSearcher{results: []result.Result{
		result.New("d1", long, domain.Metadata{"source": "a.txt"}).WithRank(1).WithRerankScore(0.8),
	}}
	srv := newTestServer(search, &mockIngestor{}, &mockProcessor{}, &mockAnswers{answer: "the answer"})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/query", `{"q":"what?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "the answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.SearchMode != "hybrid" {
		t.Errorf("search_mode = %q, want hybrid default", resp.SearchMode)
	}
	if !resp.Reranked {
		t.Error("reranked = false, want true when rerank scores present")
	}
	if resp.TotalResults != 1 || len(resp.Sources) != 1 {
		t.Fatalf("total_results = %d, sources = %d", resp.TotalResults, len(resp.Sources))
	}
	src := resp.Sources[0]
	if len(src.TextPreview) != previewLength+3 || !strings.HasSuffix(src.TextPreview, "...") {
		t.Errorf("text_preview = %q", src.TextPreview)
	}
	if src.RerankScore == nil || *src.RerankScore != 0.8 {
		t.Errorf("rerank_score = %v", src.RerankScore)
	}
	if search.lastN != 5 || !search.lastRerank {
		t.Errorf("defaults not applied: n=%d rerank=%v", search.lastN, search.lastRerank)
	}
}

func TestQueryScoresOmitted(t *testing.T) {
	search := &mockSearcher{results: []result.Result{
		result.New("d1", "text", domain.Metadata{}).WithRank(1).WithSimilarityScore(0.7),
	}}
	srv := newTestServer(search, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/query",
		`{"q":"q","include_scores":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "similarity_score") {
		t.Error("scores included despite include_scores=false")
	}
}

func TestQueryInvalidMode(t *testing.T) {
	search := &mockSearcher{err: domain.ErrInvalidSearchMode}
	srv := newTestServer(search, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/query", `{"q":"x","mode":"keyword"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQueryNResultsOutOfRange(t *testing.T) {
	srv := newTestServer(&mockSearcher{}, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/query", `{"q":"x","n_results":50}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQueryGenerationFailure(t *testing.T) {
	search := &mockSearcher{results: []result.Result{result.New("d", "t", domain.Metadata{})}}
	srv := newTestServer(search, &mockIngestor{}, &mockProcessor{},
		&mockAnswers{err: domain.ErrGenerationFailed})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/query", `{"q":"x"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestQueryWithoutAnswerGenerator(t *testing.T) {
	search := &mockSearcher{results: []result.Result{result.New("d", "t", domain.Metadata{})}}
	srv := newTestServer(search, &mockIngestor{}, &mockProcessor{}, nil)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/query", `{"q":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp queryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "" {
		t.Errorf("answer = %q, want empty without a generator", resp.Answer)
	}
}

func TestAddTriggersRebuild(t *testing.T) {
	ingest := &mockIngestor{ids: []string{"id1", "id2"}}
	srv := newTestServer(&mockSearcher{}, ingest, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/add",
		`{"text":"some text","strategy":"semantic"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp addResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Chunks != 2 || !resp.IndexRebuilt {
		t.Errorf("chunks = %d, index_rebuilt = %v", resp.Chunks, resp.IndexRebuilt)
	}
	if ingest.lastStrategy != chunking.Semantic {
		t.Errorf("strategy = %v, want semantic", ingest.lastStrategy)
	}
	if !ingest.lastChunk {
		t.Error("chunk default should be true")
	}
}

func TestAddRebuildFailureReported(t *testing.T) {
	ingest := &mockIngestor{ids: []string{"id1"}}
	search := &mockSearcher{rebuildErr: errors.New("store down")}
	srv := newTestServer(search, ingest, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/add", `{"text":"t"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want the write to still succeed", rec.Code)
	}
	var resp addResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.IndexRebuilt {
		t.Error("index_rebuilt = true despite rebuild failure")
	}
}

func TestAddBadStrategy(t *testing.T) {
	srv := newTestServer(&mockSearcher{}, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/add",
		`{"text":"t","strategy":"quantum"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHappyPath(t *testing.T) {
	ingest := &mockIngestor{ids: []string{"a", "b", "c"}}
	processor := &mockProcessor{extracted: extract.Extracted{
		Text:     "file body",
		Metadata: domain.Metadata{"source": "doc.txt"},
	}}
	srv := newTestServer(&mockSearcher{}, ingest, processor, &mockAnswers{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "doc.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("file body")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.WriteField("chunk_size", "500"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Filename != "doc.txt" || resp.Chunks != 3 {
		t.Errorf("filename = %q, chunks = %d", resp.Filename, resp.Chunks)
	}
	if ingest.lastSize != 500 {
		t.Errorf("chunk_size = %d, want 500", ingest.lastSize)
	}
	if ingest.lastOverlap != -1 {
		t.Errorf("chunk_overlap = %d, want fallback sentinel", ingest.lastOverlap)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	processor := &mockProcessor{err: domain.ErrUnsupportedFormat}
	srv := newTestServer(&mockSearcher{}, &mockIngestor{}, processor, &mockAnswers{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "slides.pptx")
	_, _ = fw.Write([]byte("x"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(&mockSearcher{}, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("strategy", "recursive")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRebuildConflict(t *testing.T) {
	search := &mockSearcher{rebuildErr: domain.ErrRebuildInProgress}
	srv := newTestServer(search, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/v1/rebuild-index", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHealthDegraded(t *testing.T) {
	srv := NewServer(&mockSearcher{}, &mockIngestor{}, &mockProcessor{}, &mockAnswers{},
		&mockHealth{report: healthuc.Report{
			Status: healthuc.Degraded,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
		}},
		RateLimits{}, zap.NewNop())

	rec := doJSON(t, srv.Router(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestInfo(t *testing.T) {
	srv := newTestServer(&mockSearcher{}, &mockIngestor{}, &mockProcessor{}, &mockAnswers{})

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/v1/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp infoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "rag-api" {
		t.Errorf("name = %q", resp.Name)
	}
}

func TestQueryRateLimited(t *testing.T) {
	search := &mockSearcher{}
	srv := NewServer(search, &mockIngestor{}, &mockProcessor{}, &mockAnswers{},
		&mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		RateLimits{QueryPerMinute: 2}, zap.NewNop())
	router := srv.Router()

	var last int
	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/query", `{"q":"x"}`)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}
}
