package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mediacatalog-backend/internal/models"
)

type mediaRepository interface {
	Create(ctx context.Context, m *models.MediaItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.MediaItem, error)
	List(ctx context.Context, search, contentType, provider, sortBy string, limit, offset int) ([]*models.MediaItem, int, error)
	Update(ctx context.Context, m *models.MediaItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MediaHandler struct {
	mediaRepo mediaRepository
}

func NewMediaHandler(mediaRepo mediaRepository) *MediaHandler {
	return &MediaHandler{mediaRepo: mediaRepo}
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 20
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	items, total, err := h.mediaRepo.List(r.Context(),
		q.Get("search"), q.Get("content_type"), q.Get("provider"),
		q.Get("sort"), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list media items", r))
		return
	}
	if items == nil {
		items = []*models.MediaItem{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// Get resolves the path parameter as a row UUID first and falls back to
// the external natural key.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")

	var item *models.MediaItem
	var err error
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		item, err = h.mediaRepo.GetByID(r.Context(), id)
	} else {
		item, err = h.mediaRepo.GetByExternalID(r.Context(), key)
	}
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Media item not found", r))
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMediaItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.ExternalID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "external_id is required", r))
		return
	}

	item := &models.MediaItem{
		ExternalID:        req.ExternalID,
		GUID:              req.GUID,
		Title:             req.Title,
		SeriesTitle:       req.SeriesTitle,
		SeasonNumber:      req.SeasonNumber,
		EpisodeNumber:     req.EpisodeNumber,
		ContentType:       req.ContentType,
		AvailabilityState: req.AvailabilityState,
		Countries:         req.Countries,
		PremiumFeatures:   req.PremiumFeatures,
		Provider:          req.Provider,
		Description:       req.Description,
		Ratings:           req.Ratings,
		YouTubeVideoIDs:   req.YouTubeVideoIDs,
	}

	if err := h.mediaRepo.Create(r.Context(), item); err != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A media item with that external_id already exists", r))
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid media item ID", r))
		return
	}

	item, err := h.mediaRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Media item not found", r))
		return
	}

	var req models.CreateMediaItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	item.GUID = req.GUID
	item.Title = req.Title
	item.SeriesTitle = req.SeriesTitle
	item.SeasonNumber = req.SeasonNumber
	item.EpisodeNumber = req.EpisodeNumber
	item.ContentType = req.ContentType
	item.AvailabilityState = req.AvailabilityState
	item.Countries = req.Countries
	item.PremiumFeatures = req.PremiumFeatures
	item.Provider = req.Provider
	item.Description = req.Description
	item.Ratings = req.Ratings
	item.YouTubeVideoIDs = req.YouTubeVideoIDs

	if err := h.mediaRepo.Update(r.Context(), item); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update media item", r))
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid media item ID", r))
		return
	}

	if err := h.mediaRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Media item not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Media item deleted"})
}
