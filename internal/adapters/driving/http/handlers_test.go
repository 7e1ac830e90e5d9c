package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plantops/advisor-core/internal/core/domain"
)

// Mock services for testing

type mockChatService struct {
	handleFn func(ctx context.Context, identityHint, text string) (*domain.Reply, error)

	lastIdentityHint string
}

func (m *mockChatService) HandleMessage(ctx context.Context, identityHint, text string) (*domain.Reply, error) {
	m.lastIdentityHint = identityHint
	if m.handleFn != nil {
		return m.handleFn(ctx, identityHint, text)
	}
	return nil, errors.New("not implemented")
}

type mockDocService struct {
	ingestFn        func(ctx context.Context, content, sourceLabel string) (*domain.IngestResult, error)
	getFn           func(ctx context.Context, id string) (*domain.Document, error)
	getWithChunksFn func(ctx context.Context, id string) (*domain.DocumentWithChunks, error)
	removeFn        func(ctx context.Context, id string) error
	listFn          func(ctx context.Context, limit, offset int) ([]*domain.Document, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockDocService) Ingest(ctx context.Context, content, sourceLabel string) (*domain.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, content, sourceLabel)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	if m.getWithChunksFn != nil {
		return m.getWithChunksFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockDocService) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockDocService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockDocService) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionService struct {
	getFn   func(ctx context.Context, id string) (*domain.Session, error)
	sweepFn func(ctx context.Context, maxIdle time.Duration) (int, error)
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockSessionService) Sweep(ctx context.Context, maxIdle time.Duration) (int, error) {
	if m.sweepFn != nil {
		return m.sweepFn(ctx, maxIdle)
	}
	return 0, nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type failPinger struct{}

func (failPinger) Ping(ctx context.Context) error { return errors.New("down") }

func newTestServer(chat *mockChatService, docs *mockDocService, sessions *mockSessionService) *Server {
	if chat == nil {
		chat = &mockChatService{}
	}
	if docs == nil {
		docs = &mockDocService{}
	}
	if sessions == nil {
		sessions = &mockSessionService{}
	}
	return NewServer(DefaultConfig(), chat, docs, sessions, NewIdentityResolver(nil), okPinger{}, nil)
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// Health endpoints

func TestHandleHealth(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	rec := doRequest(s, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleReady_DBDown(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	s.db = failPinger{}

	rec := doRequest(s, "GET", "/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHandleReady_RedisOptional(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	// nil redis client must not block readiness

	rec := doRequest(s, "GET", "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	rec := doRequest(s, "GET", "/version", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Errorf("expected version dev, got %s", resp["version"])
	}
}

// Chat endpoint

func TestHandleChat_Success(t *testing.T) {
	chat := &mockChatService{
		handleFn: func(ctx context.Context, identityHint, text string) (*domain.Reply, error) {
			return &domain.Reply{
				Text: "stock is 500 tons",
				Diagnostics: domain.Diagnostics{
					SessionID: "sess-1",
					CacheHit:  false,
				},
			}, nil
		},
	}
	s := newTestServer(chat, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/chat", ChatRequest{Message: "how much OPC43 stock do we have"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reply domain.Reply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if reply.Text != "stock is 500 tons" {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	if reply.Diagnostics.SessionID != "sess-1" {
		t.Errorf("expected diagnostics session ID, got %q", reply.Diagnostics.SessionID)
	}
}

func TestHandleChat_UsesHeaderIdentity(t *testing.T) {
	chat := &mockChatService{
		handleFn: func(ctx context.Context, identityHint, text string) (*domain.Reply, error) {
			return &domain.Reply{Text: "ok"}, nil
		},
	}
	s := newTestServer(chat, nil, nil)

	body, _ := json.Marshal(ChatRequest{Message: "hello"})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("X-Session-ID", "visitor-42")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if chat.lastIdentityHint != "visitor-42" {
		t.Errorf("expected identity hint visitor-42, got %q", chat.lastIdentityHint)
	}
}

func TestHandleChat_EmptyMessage(t *testing.T) {
	chat := &mockChatService{
		handleFn: func(ctx context.Context, identityHint, text string) (*domain.Reply, error) {
			return nil, domain.ErrInvalidInput
		},
	}
	s := newTestServer(chat, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/chat", ChatRequest{Message: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleChat_GenerationFailure(t *testing.T) {
	chat := &mockChatService{
		handleFn: func(ctx context.Context, identityHint, text string) (*domain.Reply, error) {
			return nil, domain.ErrGenerationFailed
		},
	}
	s := newTestServer(chat, nil, nil)

	rec := doRequest(s, "POST", "/api/v1/chat", ChatRequest{Message: "hello"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestHandleChat_InvalidBody(t *testing.T) {
	s := newTestServer(nil, nil, nil)

	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// Document endpoints

func TestHandleIngestDocument(t *testing.T) {
	docs := &mockDocService{
		ingestFn: func(ctx context.Context, content, sourceLabel string) (*domain.IngestResult, error) {
			if content != "Stock of OPC43 is 500 tons" {
				t.Errorf("unexpected content %q", content)
			}
			if sourceLabel != "inventory" {
				t.Errorf("unexpected source label %q", sourceLabel)
			}
			return &domain.IngestResult{DocumentID: "doc-1", ChunkCount: 1}, nil
		},
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "POST", "/api/v1/documents", IngestRequest{
		Content:     "Stock of OPC43 is 500 tons",
		SourceLabel: "inventory",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if result.DocumentID != "doc-1" || result.ChunkCount != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestHandleIngestDocument_Empty(t *testing.T) {
	docs := &mockDocService{
		ingestFn: func(ctx context.Context, content, sourceLabel string) (*domain.IngestResult, error) {
			return nil, domain.ErrEmptyDocument
		},
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "POST", "/api/v1/documents", IngestRequest{Content: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleListDocuments(t *testing.T) {
	docs := &mockDocService{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
			if limit != 2 || offset != 1 {
				t.Errorf("expected limit=2 offset=1, got %d/%d", limit, offset)
			}
			return []*domain.Document{{ID: "doc-2"}, {ID: "doc-3"}}, nil
		},
		countFn: func(ctx context.Context) (int, error) { return 5, nil },
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "GET", "/api/v1/documents?limit=2&offset=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp ListDocumentsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Documents) != 2 {
		t.Errorf("expected 2 documents, got %d", len(resp.Documents))
	}
	if resp.Total != 5 {
		t.Errorf("expected total 5, got %d", resp.Total)
	}
}

func TestHandleGetDocument_NotFound(t *testing.T) {
	docs := &mockDocService{
		getFn: func(ctx context.Context, id string) (*domain.Document, error) {
			return nil, domain.ErrNotFound
		},
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "GET", "/api/v1/documents/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetDocumentChunks(t *testing.T) {
	docs := &mockDocService{
		getWithChunksFn: func(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
			return &domain.DocumentWithChunks{
				Document: &domain.Document{ID: id},
				Chunks:   []*domain.Chunk{{ID: id + ":0", DocumentID: id}},
			}, nil
		},
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "GET", "/api/v1/documents/doc-1/chunks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp domain.DocumentWithChunks
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Chunks) != 1 {
		t.Errorf("expected 1 chunk, got %d", len(resp.Chunks))
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	deleted := ""
	docs := &mockDocService{
		removeFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "DELETE", "/api/v1/documents/doc-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if deleted != "doc-1" {
		t.Errorf("expected doc-1 deleted, got %q", deleted)
	}
}

func TestHandleDeleteDocument_NotFound(t *testing.T) {
	docs := &mockDocService{
		removeFn: func(ctx context.Context, id string) error {
			return domain.ErrNotFound
		},
	}
	s := newTestServer(nil, docs, nil)

	rec := doRequest(s, "DELETE", "/api/v1/documents/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// Session endpoints

func TestHandleGetSession(t *testing.T) {
	sessions := &mockSessionService{
		getFn: func(ctx context.Context, id string) (*domain.Session, error) {
			return &domain.Session{ID: id, IdentityHint: "visitor-1"}, nil
		},
	}
	s := newTestServer(nil, nil, sessions)

	rec := doRequest(s, "GET", "/api/v1/sessions/sess-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var session domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if session.ID != "sess-1" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestHandleGetSession_NotFound(t *testing.T) {
	sessions := &mockSessionService{
		getFn: func(ctx context.Context, id string) (*domain.Session, error) {
			return nil, domain.ErrSessionNotFound
		},
	}
	s := newTestServer(nil, nil, sessions)

	rec := doRequest(s, "GET", "/api/v1/sessions/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSweepSessions(t *testing.T) {
	var gotMaxIdle time.Duration
	sessions := &mockSessionService{
		sweepFn: func(ctx context.Context, maxIdle time.Duration) (int, error) {
			gotMaxIdle = maxIdle
			return 3, nil
		},
	}
	s := newTestServer(nil, nil, sessions)

	rec := doRequest(s, "POST", "/api/v1/admin/sessions/sweep", SweepRequest{MaxIdleHours: 24})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp SweepResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Removed != 3 {
		t.Errorf("expected 3 removed, got %d", resp.Removed)
	}
	if gotMaxIdle != 24*time.Hour {
		t.Errorf("expected 24h max idle, got %v", gotMaxIdle)
	}
}

func TestHandleSweepSessions_DefaultWindow(t *testing.T) {
	var gotMaxIdle time.Duration
	sessions := &mockSessionService{
		sweepFn: func(ctx context.Context, maxIdle time.Duration) (int, error) {
			gotMaxIdle = maxIdle
			return 0, nil
		},
	}
	s := newTestServer(nil, nil, sessions)

	rec := doRequest(s, "POST", "/api/v1/admin/sessions/sweep", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotMaxIdle != 7*24*time.Hour {
		t.Errorf("expected default 7d max idle, got %v", gotMaxIdle)
	}
}
