package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yangkidd/socialdw/internal/config"
	"github.com/yangkidd/socialdw/internal/ingest"
	"github.com/yangkidd/socialdw/internal/store"
)

// stubStore satisfies ingest.Store without a database. Handler tests only
// need the pipeline to run end to end, not to inspect writes.
type stubStore struct {
	uploads []store.UploadLogEntry
}

func (s *stubStore) Begin(context.Context) (ingest.Batch, error) {
	return &stubBatch{}, nil
}

func (s *stubStore) LastSuccessfulUpload(context.Context, string, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (s *stubStore) AppendUploadLog(_ context.Context, e store.UploadLogEntry) error {
	s.uploads = append(s.uploads, e)
	return nil
}

type stubBatch struct{}

func (b *stubBatch) UpsertMetric(context.Context, store.MetricPoint) error  { return nil }
func (b *stubBatch) UpsertContent(context.Context, store.ContentItem) error { return nil }
func (b *stubBatch) UpsertSnapshot(context.Context, store.Snapshot) error   { return nil }
func (b *stubBatch) Commit(context.Context) error                           { return nil }
func (b *stubBatch) Rollback(context.Context)                               {}

// stubData serves canned query results to the read endpoints.
type stubData struct{}

func (stubData) MaxMetricDate(context.Context) (string, bool, error) {
	return "2024-11-19", true, nil
}

func (stubData) LatestMetrics(context.Context, int) ([]store.MetricPoint, error) {
	return nil, nil
}

func (stubData) TopContent(context.Context, int) ([]store.ContentPerformance, error) {
	return []store.ContentPerformance{{
		PostID:        "12345",
		Platform:      "TikTok",
		DatePublished: "2024-10-01",
		Caption:       "clip",
		Link:          "https://t.example/video/12345",
		DateRecorded:  "2024-11-19",
		Views:         9000,
		Likes:         700,
	}}, nil
}

func (stubData) RecentUploads(context.Context, int) ([]store.UploadLogEntry, error) {
	return nil, nil
}

func (stubData) ResetAll(context.Context) error               { return nil }
func (stubData) DeletePlatform(context.Context, string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: time.Minute,
		},
		Upload: config.UploadConfig{
			MaxFileSize:     1 << 20,
			MaxFiles:        3,
			Timeout:         time.Minute,
			DefaultPlatform: "Instagram",
			MaxConcurrent:   2,
		},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ingest.New(&stubStore{}, logger)
	return NewServer(cfg, svc, stubData{})
}

// multipartBody builds a multipart form with the given files under the
// field name, plus any extra string fields.
func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q, want %q", got, "ok")
	}
}

func TestHandleUpload_Saved(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "files",
		map[string]string{"followers.csv": "Date,Followers\n2024-11-18,1000\n2024-11-19,1010\n"},
		map[string]string{"platform": "TikTok"},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Platform string `json:"platform"`
		Results  []struct {
			Filename string `json:"filename"`
			Status   string `json:"status"`
			Rows     int    `json:"rows"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Platform != "TikTok" {
		t.Errorf("platform = %q, want %q", resp.Platform, "TikTok")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].Status != "saved" {
		t.Errorf("status = %q, want %q", resp.Results[0].Status, "saved")
	}
	if resp.Results[0].Rows != 2 {
		t.Errorf("rows = %d, want 2", resp.Results[0].Rows)
	}
}

func TestHandleUpload_DefaultPlatform(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "files",
		map[string]string{"reach.csv": "Date,Reach\n2024-11-18,500\n"},
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"platform":"Instagram"`) {
		t.Errorf("expected default platform in response, got: %s", rec.Body.String())
	}
}

func TestHandleUpload_NoFiles(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "files", nil, map[string]string{"platform": "Instagram"})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleUpload_TooManyFiles(t *testing.T) {
	s := newTestServer(t)

	files := map[string]string{
		"a.csv": "Date,Reach\n2024-11-18,1\n",
		"b.csv": "Date,Reach\n2024-11-18,2\n",
		"c.csv": "Date,Reach\n2024-11-18,3\n",
		"d.csv": "Date,Reach\n2024-11-18,4\n",
	}
	body, contentType := multipartBody(t, "files", files, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "too many files") {
		t.Errorf("expected too many files error, got: %s", rec.Body.String())
	}
}

func TestHandleReport(t *testing.T) {
	s := newTestServer(t)

	csv := "Date,Followers\n2024-11-01,1000\n2024-11-02,1010\n2024-11-03,1025\n"
	body, contentType := multipartBody(t, "file", map[string]string{"followers.csv": csv}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if got := rec.Body.String(); !strings.Contains(got, "followers.csv") {
		t.Errorf("report should mention the filename, got: %s", got)
	}
}

func TestHandleReport_Download(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "file",
		map[string]string{"reach.csv": "Date,Reach\n2024-11-01,500\n"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/report?download=1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "reach.csv.txt") {
		t.Errorf("Content-Disposition = %q, want attachment with reach.csv.txt", cd)
	}
}

func TestHandleReport_NoFile(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartBody(t, "file", nil, map[string]string{"x": "y"})

	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleContent_CarriesPostID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// post_id is the identity key of the join; it must survive marshalling.
	if !strings.Contains(rec.Body.String(), `"post_id":"12345"`) {
		t.Fatalf("post_id missing from response: %s", rec.Body.String())
	}

	var items []store.ContentPerformance
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].PostID != "12345" {
		t.Errorf("PostID = %q, want %q", items[0].PostID, "12345")
	}
	if items[0].Views != 9000 {
		t.Errorf("Views = %v, want 9000", items[0].Views)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
