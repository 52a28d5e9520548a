package controllers

import (
	"errors"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressStore persists resume positions and watch history.
// Write failures are logged and swallowed; playback never sees them.
type ProgressStore struct {
	db      *models.Database
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewProgressStore creates a new progress store
func NewProgressStore(db *models.Database, logger *logrus.Logger, m *metrics.Metrics) *ProgressStore {
	return &ProgressStore{
		db:      db,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Get returns the stored progress for a content id
func (s *ProgressStore) Get(contentID string) (*models.PlaybackProgress, bool) {
	progress, err := s.db.GetProgress(contentID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.WithError(err).WithField("content_id", contentID).Warn("Failed to read progress")
		}
		return nil, false
	}
	return progress, true
}

// Put upserts the position, stamped with the current time
func (s *ProgressStore) Put(contentID string, positionSeconds, durationSeconds float64) {
	entry := &models.PlaybackProgress{
		ContentID:        contentID,
		PositionSeconds:  positionSeconds,
		DurationSeconds:  durationSeconds,
		UpdatedAtEpochMs: s.now().UnixMilli(),
	}
	if err := s.db.UpsertProgress(entry); err != nil {
		s.metrics.ObserveProgressFailure()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"content_id": contentID,
			"position":   positionSeconds,
		}).Error("Failed to save progress")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"content_id": contentID,
		"position":   positionSeconds,
		"duration":   durationSeconds,
	}).Debug("Progress saved")
}

// Remove deletes the stored progress for a content id
func (s *ProgressStore) Remove(contentID string) error {
	return s.db.DeleteProgress(contentID)
}

// RecordWatched appends the recently watched entry of a content id
func (s *ProgressStore) RecordWatched(contentID, title, posterURL string) {
	entry := &models.WatchHistory{
		ContentID:        contentID,
		Title:            title,
		PosterURL:        posterURL,
		WatchedAtEpochMs: s.now().UnixMilli(),
	}
	if err := s.db.RecordWatched(entry); err != nil {
		s.logger.WithError(err).WithField("content_id", contentID).Warn("Failed to record watch history")
	}
}

// RecentlyWatched returns the newest history entries
func (s *ProgressStore) RecentlyWatched(limit int) ([]*models.WatchHistory, error) {
	return s.db.GetRecentlyWatched(limit)
}
