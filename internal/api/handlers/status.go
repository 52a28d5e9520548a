package handlers

import (
	"net/http"

	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
)

// recentLimit caps the recently watched list in the status response
const recentLimit = 10

// SessionCounter reports the number of live playback sessions
type SessionCounter interface {
	Active() int
}

// StatusHandler handles status requests
type StatusHandler struct {
	db       *models.Database
	sessions SessionCounter
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, sessions SessionCounter, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:       db,
		sessions: sessions,
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	ActiveSessions  int                    `json:"active_sessions"`
	ProgressEntries int                    `json:"progress_entries"`
	InProgress      int                    `json:"in_progress"`
	Finished        int                    `json:"finished"`
	QueuedJobs      int                    `json:"queued_jobs"`
	FailedJobs      int                    `json:"failed_jobs"`
	RecentlyWatched []*models.WatchHistory `json:"recently_watched"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := h.db.GetAllProgress()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get progress entries")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{ProgressEntries: len(entries)}
	if h.sessions != nil {
		response.ActiveSessions = h.sessions.Active()
	}
	for _, entry := range entries {
		if entry.Finished() {
			response.Finished++
		} else {
			response.InProgress++
		}
	}

	queued, err := h.db.GetJobsByStatus(models.JobStatusQueued)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get queued jobs")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	failed, err := h.db.GetJobsByStatus(models.JobStatusFailed)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get failed jobs")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	response.QueuedJobs = len(queued)
	response.FailedJobs = len(failed)

	response.RecentlyWatched, err = h.db.GetRecentlyWatched(recentLimit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get watch history")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if response.RecentlyWatched == nil {
		response.RecentlyWatched = []*models.WatchHistory{}
	}

	writeJSON(w, http.StatusOK, response, h.logger)
}
