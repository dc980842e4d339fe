package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mediacatalog-backend/internal/ingest"
	"mediacatalog-backend/internal/models"
	"mediacatalog-backend/internal/repository"
)

const importQueueKey = "queue:catalog-import"

type ImportHandler struct {
	importer    *ingest.Importer
	jobRepo     *repository.ImportJobRepo
	redis       *redis.Client
	storagePath string
	maxBytes    int64
}

func NewImportHandler(importer *ingest.Importer, jobRepo *repository.ImportJobRepo, redisClient *redis.Client, storagePath string, maxBytes int64) *ImportHandler {
	return &ImportHandler{
		importer:    importer,
		jobRepo:     jobRepo,
		redis:       redisClient,
		storagePath: storagePath,
		maxBytes:    maxBytes,
	}
}

// ImportCSV runs a synchronous import of a CSV payload. The input contract
// is enforced before any transaction is opened: wrong content type and
// oversized payloads are rejected outright with no partial work.
func (h *ImportHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body, err := h.openCSVBody(w, r)
	if err != nil {
		handleIngestError(w, r, err)
		return
	}

	src, err := ingest.NewCSVSource(body)
	if err != nil {
		handleIngestError(w, r, err)
		return
	}

	summary, err := h.importer.ImportBatch(r.Context(), src)
	if err != nil {
		handleIngestError(w, r, h.remapTruncatedBody(err))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ImportJSON runs a synchronous import of a {"items":[...]} payload.
func (h *ImportHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	if !hasContentType(r, "application/json") {
		handleIngestError(w, r, ingest.NewError(ingest.KindInvalidFormat,
			fmt.Errorf("expected application/json, got %q", r.Header.Get("Content-Type"))))
		return
	}
	if r.ContentLength > h.maxBytes {
		handleIngestError(w, r, ingest.NewError(ingest.KindSizeExceeded,
			fmt.Errorf("payload of %d bytes exceeds the %d byte limit", r.ContentLength, h.maxBytes)))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var req models.ImportItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			handleIngestError(w, r, ingest.NewError(ingest.KindSizeExceeded, err))
			return
		}
		handleIngestError(w, r, ingest.NewError(ingest.KindParseFailure, err))
		return
	}

	summary, err := h.importer.ImportBatch(r.Context(), ingest.NewJSONSource(req.Items))
	if err != nil {
		handleIngestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// CreateJob stages the upload on disk and queues an asynchronous import
// run for the worker pool. Status updates arrive over the websocket hub.
func (h *ImportHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	body, err := h.openCSVBody(w, r)
	if err != nil {
		handleIngestError(w, r, err)
		return
	}

	dir := filepath.Join(h.storagePath, "imports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}

	path := filepath.Join(dir, uuid.New().String()+".csv")
	f, err := os.Create(path)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		if isBodyTooLarge(err) {
			handleIngestError(w, r, ingest.NewError(ingest.KindSizeExceeded, err))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store upload", r))
		return
	}
	f.Close()

	job := &models.ImportJob{Type: "csv-import", FilePath: path}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		os.Remove(path)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create import job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), importQueueKey, string(jobBytes)).Err(); err != nil {
		log.Printf("import job %s created but enqueue failed: %v", job.ID, err)
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *ImportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Import job not found", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// openCSVBody enforces the CSV input contract and returns the raw row
// stream, from either a text/csv body or a multipart "file" part.
func (h *ImportHandler) openCSVBody(w http.ResponseWriter, r *http.Request) (io.Reader, error) {
	if r.ContentLength > h.maxBytes {
		return nil, ingest.NewError(ingest.KindSizeExceeded,
			fmt.Errorf("payload of %d bytes exceeds the %d byte limit", r.ContentLength, h.maxBytes))
	}

	switch {
	case hasContentType(r, "text/csv"):
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		return r.Body, nil
	case hasContentType(r, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, ingest.NewError(ingest.KindInvalidFormat, fmt.Errorf("missing file part: %w", err))
		}
		return file, nil
	default:
		return nil, ingest.NewError(ingest.KindInvalidFormat,
			fmt.Errorf("expected text/csv or multipart/form-data, got %q", r.Header.Get("Content-Type")))
	}
}

// remapTruncatedBody reclassifies a mid-stream MaxBytesReader cutoff as a
// size violation rather than a parse failure.
func (h *ImportHandler) remapTruncatedBody(err error) error {
	if isBodyTooLarge(err) {
		return ingest.NewError(ingest.KindSizeExceeded, err)
	}
	return err
}

func hasContentType(r *http.Request, want string) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.HasPrefix(ct, want)
	}
	return mediaType == want
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}
