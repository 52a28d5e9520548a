package handlers

import (
	"errors"
	"net/http"

	"github.com/amaumene/reelarr/internal/controllers"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
)

// SeasonHandler exposes the batch scan and download workflow
type SeasonHandler struct {
	ctrl   *controllers.SeasonController
	logger *logrus.Logger
}

// NewSeasonHandler creates a new season handler
func NewSeasonHandler(ctrl *controllers.SeasonController, logger *logrus.Logger) *SeasonHandler {
	return &SeasonHandler{ctrl: ctrl, logger: logger}
}

// SeasonRequest selects the season to scan or download.
// Episodes wins over EpisodeCount when both are set.
type SeasonRequest struct {
	ShowID       string           `json:"showId"`
	Season       int              `json:"season"`
	Episodes     []models.Episode `json:"episodes,omitempty"`
	EpisodeCount int              `json:"episodeCount,omitempty"`
	Resolution   int              `json:"resolution,omitempty"`
	Title        string           `json:"title,omitempty"`
	PosterURL    string           `json:"posterUrl,omitempty"`
	Policy       string           `json:"policy,omitempty"`
}

func (req SeasonRequest) episodes() []models.Episode {
	if len(req.Episodes) > 0 {
		return req.Episodes
	}
	return controllers.EpisodeRange(req.EpisodeCount)
}

// DownloadResponse is the result of a season download
type DownloadResponse struct {
	Plan    *controllers.SeasonPlan      `json:"plan"`
	Summary *controllers.DownloadSummary `json:"summary,omitempty"`
}

// Scan handles POST /api/seasons/scan
func (h *SeasonHandler) Scan(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	plan, err := h.ctrl.Plan(r.Context(), req.ShowID, req.Season, req.episodes(), req.Resolution, nil)
	if err != nil && !errors.Is(err, controllers.ErrNoResolution) {
		h.logger.WithError(err).Warn("Season scan interrupted")
		writeError(w, http.StatusServiceUnavailable, err.Error(), h.logger)
		return
	}
	writeJSON(w, http.StatusOK, plan, h.logger)
}

// Download handles POST /api/seasons/download
func (h *SeasonHandler) Download(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	policy, err := models.ParseMissingPolicy(req.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	plan, err := h.ctrl.Plan(r.Context(), req.ShowID, req.Season, req.episodes(), req.Resolution, nil)
	if errors.Is(err, controllers.ErrNoResolution) {
		writeJSON(w, http.StatusUnprocessableEntity, DownloadResponse{Plan: plan}, h.logger)
		return
	}
	if err != nil {
		h.logger.WithError(err).Warn("Season scan interrupted")
		writeError(w, http.StatusServiceUnavailable, err.Error(), h.logger)
		return
	}

	title := req.Title
	if title == "" {
		title = req.ShowID
	}
	summary, err := h.ctrl.Queue(r.Context(), plan, title, req.PosterURL, policy)
	switch {
	case errors.Is(err, controllers.ErrMissingResolution):
		writeJSON(w, http.StatusConflict, DownloadResponse{Plan: plan}, h.logger)
	case err != nil:
		h.logger.WithError(err).Warn("Season download interrupted")
		writeJSON(w, http.StatusServiceUnavailable, DownloadResponse{Plan: plan, Summary: summary}, h.logger)
	default:
		writeJSON(w, http.StatusOK, DownloadResponse{Plan: plan, Summary: summary}, h.logger)
	}
}

func (h *SeasonHandler) decode(w http.ResponseWriter, r *http.Request) (SeasonRequest, bool) {
	var req SeasonRequest
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", h.logger)
		return req, false
	}
	if req.ShowID == "" || req.Season < 1 || len(req.episodes()) == 0 {
		writeError(w, http.StatusBadRequest, "showId, season and episodes are required", h.logger)
		return req, false
	}
	return req, true
}
