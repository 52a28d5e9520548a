package controllers

import (
	"context"
	"errors"

	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNoResolution is returned when no scanned episode offers any source
var ErrNoResolution = errors.New("no episode offers any source")

// SeasonPlan is a scanned season with its reconciled target resolution
type SeasonPlan struct {
	Scan       *SeasonScan      `json:"scan"`
	Resolution int              `json:"resolution"`
	Missing    []MissingEpisode `json:"missing"`
}

// SeasonController runs the scan, reconcile, queue workflow of a season
type SeasonController struct {
	batch     *BatchScanner
	downloads *DownloadController
	logger    *logrus.Logger
}

// NewSeasonController creates a new season controller
func NewSeasonController(batch *BatchScanner, downloads *DownloadController, logger *logrus.Logger) *SeasonController {
	return &SeasonController{
		batch:     batch,
		downloads: downloads,
		logger:    logger,
	}
}

// Plan scans the season and reconciles it against resolution, or against the
// default selection when resolution is 0
func (c *SeasonController) Plan(ctx context.Context, showID string, season int, episodes []models.Episode, resolution int, onProgress func(BatchProgress)) (*SeasonPlan, error) {
	scan, err := c.batch.ScanSeason(ctx, showID, season, episodes, onProgress)
	if err != nil {
		return &SeasonPlan{Scan: scan}, err
	}

	reconciliation := NewReconciliation(scan.Records)
	if resolution == 0 {
		var ok bool
		if resolution, ok = reconciliation.DefaultResolution(); !ok {
			return &SeasonPlan{Scan: scan}, ErrNoResolution
		}
	}

	plan := &SeasonPlan{
		Scan:       scan,
		Resolution: resolution,
		Missing:    reconciliation.EpisodesMissing(resolution),
	}
	c.logger.WithFields(logrus.Fields{
		"show_id":    showID,
		"season":     season,
		"resolution": resolution,
		"missing":    len(plan.Missing),
	}).Info("Season reconciled")
	return plan, nil
}

// Queue submits the planned season under the given missing-episode policy
func (c *SeasonController) Queue(ctx context.Context, plan *SeasonPlan, title, posterURL string, policy models.MissingPolicy) (*DownloadSummary, error) {
	return c.downloads.QueueSeason(ctx, SeasonDownloadRequest{
		ShowID:     plan.Scan.ShowID,
		Season:     plan.Scan.Season,
		Title:      title,
		PosterURL:  posterURL,
		Resolution: plan.Resolution,
		Policy:     policy,
		Records:    plan.Scan.Records,
	})
}

// EpisodeRange lists episodes 1..count
func EpisodeRange(count int) []models.Episode {
	episodes := make([]models.Episode, 0, count)
	for i := 1; i <= count; i++ {
		episodes = append(episodes, models.Episode{Number: i})
	}
	return episodes
}
