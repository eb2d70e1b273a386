package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/queryservice"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/vault"
)

func testRouter(t *testing.T, authToken string, files map[string]string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for p, c := range files {
		if err := store.Write(p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := vault.New(store, nil, logger)
	svc := queryservice.New(engine, store, nil)
	return NewRouter(svc, authToken != "", authToken)
}

func doRequest(t *testing.T, h http.Handler, method, target, token string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	h := testRouter(t, "", map[string]string{
		"note1.md": "This is a test note\n",
	})
	rec := doRequest(t, h, http.MethodGet, "/search?q=test+note", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Note.Path != "note1.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	h := testRouter(t, "", nil)
	rec := doRequest(t, h, http.MethodGet, "/search", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoint_BadPattern(t *testing.T) {
	h := testRouter(t, "", nil)
	rec := doRequest(t, h, http.MethodGet, "/search?q=%28%5Bboom", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetNoteEndpoint(t *testing.T) {
	h := testRouter(t, "", map[string]string{
		"sub/n.md": "---\ntitle: N\n---\nbody\n",
	})
	rec := doRequest(t, h, http.MethodGet, "/notes/sub/n", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var note models.Note
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if note.Metadata.Title() != "N" {
		t.Errorf("note = %+v", note)
	}

	rec = doRequest(t, h, http.MethodGet, "/notes/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateNoteEndpoint(t *testing.T) {
	h := testRouter(t, "", nil)
	body, _ := json.Marshal(CreateNoteRequest{Path: "new.md", Content: "# New\n"})

	rec := doRequest(t, h, http.MethodPost, "/notes", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, h, http.MethodPost, "/notes", "", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/notes", "", []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTagsEndpoint(t *testing.T) {
	h := testRouter(t, "", map[string]string{
		"a.md": "---\ntags: [test, example]\n---\nx\n",
		"b.md": "---\ntags: [test]\n---\nx\n",
	})
	rec := doRequest(t, h, http.MethodGet, "/tags?min_count=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp TagsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tags) != 1 || resp.Tags[0].Tag != "test" || resp.Tags[0].Count != 2 {
		t.Errorf("tags = %+v", resp.Tags)
	}
}

func TestAuth(t *testing.T) {
	h := testRouter(t, "secret", nil)

	rec := doRequest(t, h, http.MethodGet, "/tags", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/tags", "wrong", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/tags", "secret", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
