package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/inventory/internal/audit"
	"github.com/JonMunkholm/inventory/internal/inventory"
	"github.com/JonMunkholm/inventory/internal/logging"
	"github.com/JonMunkholm/inventory/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for boundaries
// and part headers.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// uploadResponse is returned after a successful ingestion.
type uploadResponse struct {
	OK          bool      `json:"ok"`
	Rows        int       `json:"rows"`
	Version     uint64    `json:"version"`
	Updated     time.Time `json:"updated"`
	IngestionID string    `json:"ingestionId"`
	FileName    string    `json:"fileName"`
	Columns     []string  `json:"columns"`
}

// readUpload reads the multipart "file" part, enforcing the configured size
// limit. The caller must call cleanup once done with the data.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (name string, data []byte, cleanup func(), err error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	cleanup = func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", nil, cleanup, fmt.Errorf("parse upload: %w", err)
	}
	cleanup = func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = errNoFile
		}
		return "", nil, cleanup, err
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", nil, cleanup, &http.MaxBytesError{Limit: maxSize}
	}

	data, err = io.ReadAll(file)
	if err != nil {
		return "", nil, cleanup, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, cleanup, nil
}

// handleUpload ingests the multipart "file" part and replaces the dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	fileName, data, cleanup, err := s.readUpload(w, r)
	defer cleanup()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()

	res, err := s.service.Ingest(ctx, fileName, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.DatasetStatus(res.FileName, res.Rows, res.Version).Render(r.Context(), w)
		return
	}

	writeJSON(w, r, http.StatusOK, uploadResponse{
		OK:          true,
		Rows:        res.Rows,
		Version:     res.Version,
		Updated:     res.UpdatedAt,
		IngestionID: res.IngestionID,
		FileName:    res.FileName,
		Columns:     res.Columns,
	})
}

// handlePreview parses the multipart "file" part and returns its header and
// first ?limit= rows without touching the dataset.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	fileName, data, cleanup, err := s.readUpload(w, r)
	defer cleanup()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Preview(r.Context(), fileName, data, queryInt(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// dataResponse is the full dataset payload.
type dataResponse struct {
	Rows     []inventory.Row `json:"rows"`
	Updated  *time.Time      `json:"updated"`
	Version  uint64          `json:"version"`
	FileName string          `json:"fileName,omitempty"`
	Columns  []string        `json:"columns"`
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()

	rows := snap.Rows()
	if rows == nil {
		rows = []inventory.Row{}
	}
	cols := snap.Columns()
	if cols == nil {
		cols = []string{}
	}

	writeJSON(w, r, http.StatusOK, dataResponse{
		Rows:     rows,
		Updated:  snap.UpdatedAt,
		Version:  snap.Version,
		FileName: snap.FileName,
		Columns:  cols,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	snap, err := s.service.Delete(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.DatasetStatus("", 0, snap.Version).Render(r.Context(), w)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"ok":      true,
		"version": snap.Version,
	})
}

// rowsResponse is one page of the filtered listing.
type rowsResponse struct {
	inventory.View
	Version uint64 `json:"version"`
}

// handleRows serves ?q=&page=&pageSize= over the current snapshot.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	q := r.URL.Query()

	view := inventory.Query(
		snap.Rows(),
		strings.TrimSpace(q.Get("q")),
		queryInt(r, "page", 1),
		queryInt(r, "pageSize", s.cfg.Upload.DefaultPageSize),
	)

	writeJSON(w, r, http.StatusOK, rowsResponse{View: view, Version: snap.Version})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, inventory.Summarize(s.service.Snapshot()))
}

// handleAggregate serves grouped counts for one semantic field. ?top=N keeps
// the N largest buckets; omitted or non-positive returns all of them.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "field")
	field, ok := inventory.ParseSemanticField(name)
	if !ok {
		respondErrorJSON(w, unknownFieldMessage(name), http.StatusNotFound)
		return
	}

	buckets := inventory.AggregateBy(s.service.Snapshot().Rows(), field, queryInt(r, "top", 0))
	if buckets == nil {
		buckets = []inventory.Bucket{}
	}
	writeJSON(w, r, http.StatusOK, buckets)
}

func unknownFieldMessage(name string) inventory.UserMessage {
	fields := inventory.SemanticFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return inventory.UserMessage{
		Message: fmt.Sprintf("Unknown field %q", name),
		Action:  "Use one of: " + strings.Join(names, ", "),
		Code:    "ERR000",
	}
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, inventory.TimeSeriesByPurchaseDate(s.service.Snapshot().Rows()))
}

// handleDownload streams the current dataset as CSV. An empty dataset with
// no header answers 204.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	if len(snap.Columns()) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": inventory.ExportFileName(snap),
	}))

	if err := inventory.WriteCSV(w, snap); err != nil {
		// Headers are sent; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("csv export failed",
			"version", snap.Version,
			"error", err,
		)
	}
}

// handleHistory lists recent dataset changes, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.History(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"entries": entries})
}

// healthResponse reports liveness and the writer gate state.
type healthResponse struct {
	Status      string               `json:"status"`
	Version     uint64               `json:"version"`
	Rows        int                  `json:"rows"`
	Subscribers int                  `json:"subscribers"`
	Writer      inventory.GateStatus `json:"writer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Snapshot()
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     snap.Version,
		Rows:        snap.Len(),
		Subscribers: s.service.Subscribers(),
		Writer:      s.service.WriterStatus(),
	})
}

// queryInt parses an integer query parameter, returning def when it is
// missing or malformed.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
