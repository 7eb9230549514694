package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yangkidd/socialdw/internal/ingest"
	"github.com/yangkidd/socialdw/internal/logging"
	"github.com/yangkidd/socialdw/internal/report"
	"github.com/yangkidd/socialdw/internal/sniff"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleUpload processes a multipart batch of CSV files sharing one
// platform label and force flag. Every file gets its own outcome; a bad
// file never fails the batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.acquire(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer s.gate.release()

	maxBytes := s.cfg.Upload.MaxFileSize * int64(s.cfg.Upload.MaxFiles)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "upload too large or invalid form")
		return
	}

	platform := strings.TrimSpace(r.FormValue("platform"))
	if platform == "" {
		platform = s.cfg.Upload.DefaultPlatform
	}
	force, _ := strconv.ParseBool(r.FormValue("force"))

	files, err := s.readFiles(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(files) == 0 {
		writeError(w, r, http.StatusBadRequest, "no files provided")
		return
	}

	log := logging.FromContext(r.Context())
	log.Info("upload batch received", "files", len(files), "platform", platform, "force", force)

	outcomes := s.ingest.ProcessBatch(r.Context(), files, platform, force)

	writeJSON(w, r, map[string]any{
		"platform": platform,
		"results":  outcomes,
	})
}

func (s *Server) readFiles(r *http.Request) ([]ingest.File, error) {
	if r.MultipartForm == nil {
		return nil, fmt.Errorf("no multipart form")
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) > s.cfg.Upload.MaxFiles {
		return nil, fmt.Errorf("too many files: %d (max %d)", len(headers), s.cfg.Upload.MaxFiles)
	}

	var files []ingest.File
	for _, fh := range headers {
		if fh.Size > s.cfg.Upload.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds size limit", fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

// handleReport converts one uploaded CSV to the text report without
// touching storage. With ?download=1 the response is offered as an
// attachment; the bytes are identical either way.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "upload too large or invalid form")
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read file")
		return
	}

	tbl, err := sniff.Detect(data, fh.Filename)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	text := report.Render(tbl, fh.Filename)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fh.Filename+".txt"))
	}
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	date, found, err := s.store.MaxMetricDate(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{"has_data": found}
	if found {
		resp["last_date_recorded"] = date
	}
	writeJSON(w, r, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 500)
	points, err := s.store.LatestMetrics(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, points)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 200)
	items, err := s.store.TopContent(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, items)
}

func (s *Server) handleUploadLog(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 100)
	entries, err := s.store.RecentUploads(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, entries)
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetAll(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	logging.FromContext(r.Context()).Warn("all data tables reset")
	writeJSON(w, r, map[string]string{"status": "reset"})
}

func (s *Server) handleDeletePlatform(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	if platform == "" {
		writeError(w, r, http.StatusBadRequest, "missing platform")
		return
	}
	if err := s.store.DeletePlatform(r.Context(), platform); err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	logging.FromContext(r.Context()).Warn("platform data deleted", "platform", platform)
	writeJSON(w, r, map[string]string{"status": "deleted", "platform": platform})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// writeError logs the error with its request id and returns a JSON body.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", message,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}
