package handlers

import (
	"errors"
	"net/http"

	"github.com/amaumene/reelarr/internal/controllers"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressHandler reads and writes resume positions.
// It is mounted under /api/progress/ with the prefix stripped, so the path is the content id.
type ProgressHandler struct {
	store  *controllers.ProgressStore
	logger *logrus.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(store *controllers.ProgressStore, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{store: store, logger: logger}
}

type progressUpdate struct {
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// ServeHTTP handles GET, PUT and DELETE of a single entry
func (h *ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	contentID := r.URL.Path
	if _, err := models.ParseContentID(contentID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	switch r.Method {
	case http.MethodGet:
		progress, ok := h.store.Get(contentID)
		if !ok {
			writeError(w, http.StatusNotFound, "no progress for "+contentID, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, progress, h.logger)

	case http.MethodPut:
		var update progressUpdate
		if err := decodeJSON(w, r, &update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload", h.logger)
			return
		}
		if update.PositionSeconds < 0 || update.DurationSeconds < 0 {
			writeError(w, http.StatusBadRequest, "positions must not be negative", h.logger)
			return
		}
		h.store.Put(contentID, update.PositionSeconds, update.DurationSeconds)
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := h.store.Remove(contentID); err != nil && !errors.Is(err, models.ErrNotFound) {
			h.logger.WithError(err).WithField("content_id", contentID).Error("Failed to delete progress")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
