package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// ErrMissingResolution is returned under the abort policy when some episode lacks the target resolution
var ErrMissingResolution = errors.New("target resolution missing for some episodes")

// JobSubmitter hands jobs to the external download manager
type JobSubmitter interface {
	Enqueue(ctx context.Context, job models.DownloadJob) error
}

// JobLedger records every emitted job
type JobLedger interface {
	RecordJob(job *models.EmittedJob) error
}

// SeasonDownloadRequest describes one batch download of a scanned season
type SeasonDownloadRequest struct {
	ShowID     string
	Season     int
	Title      string
	PosterURL  string
	Resolution int
	Policy     models.MissingPolicy
	Records    []models.EpisodeStreamRecord
}

// DownloadSummary is the end-of-run report of a batch download
type DownloadSummary struct {
	Queued         int                  `json:"queuedCount"`
	Failed         int                  `json:"failedCount"`
	FailedEpisodes []int                `json:"failedEpisodes"`
	Jobs           []models.DownloadJob `json:"jobs"`
}

// DownloadController turns a reconciled season into download jobs
type DownloadController struct {
	submitter JobSubmitter
	ledger    JobLedger
	delay     time.Duration
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

// NewDownloadController creates a new download controller
func NewDownloadController(submitter JobSubmitter, ledger JobLedger, delay time.Duration, logger *logrus.Logger, m *metrics.Metrics) *DownloadController {
	return &DownloadController{
		submitter: submitter,
		ledger:    ledger,
		delay:     delay,
		logger:    logger,
		metrics:   m,
	}
}

// QueueSeason submits one job per episode that has an acceptable source.
// Episodes without one, and rejected submissions, are counted as failures; the
// batch itself only fails under the abort policy or when ctx is cancelled.
func (c *DownloadController) QueueSeason(ctx context.Context, req SeasonDownloadRequest) (*DownloadSummary, error) {
	ctx, span := tracer.Start(ctx, "DownloadController.QueueSeason")
	defer span.End()
	span.SetAttributes(
		attribute.String("show_id", req.ShowID),
		attribute.Int("season", req.Season),
		attribute.Int("resolution", req.Resolution),
		attribute.String("policy", string(req.Policy)),
	)

	logger := c.logger.WithFields(logrus.Fields{
		"show_id":    req.ShowID,
		"season":     req.Season,
		"resolution": req.Resolution,
		"policy":     req.Policy,
	})

	if req.Policy == models.PolicyAbort {
		if missing := NewReconciliation(req.Records).EpisodesMissing(req.Resolution); len(missing) > 0 {
			logger.WithField("missing", len(missing)).Warn("Batch download aborted")
			return nil, fmt.Errorf("%w: %d episodes", ErrMissingResolution, len(missing))
		}
	}

	summary := &DownloadSummary{
		FailedEpisodes: []int{},
		Jobs:           []models.DownloadJob{},
	}
	fail := func(episode int) {
		summary.Failed++
		summary.FailedEpisodes = append(summary.FailedEpisodes, episode)
		c.metrics.ObserveJob(false)
	}

	submitted := 0
	for _, record := range req.Records {
		source, ok := selectSource(record, req.Resolution, req.Policy)
		if !ok {
			logger.WithField("episode", record.EpisodeNumber).Info("No acceptable source, skipping episode")
			fail(record.EpisodeNumber)
			continue
		}

		if submitted > 0 && c.delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			logger.WithField("queued", summary.Queued).Warn("Batch download cancelled")
			return summary, err
		}
		submitted++

		job := newEpisodeJob(req, record.EpisodeNumber, source)
		if err := c.submitter.Enqueue(ctx, job); err != nil {
			logger.WithError(err).WithField("episode", record.EpisodeNumber).Error("Failed to submit job")
			c.record(job, models.JobStatusFailed, err.Error())
			fail(record.EpisodeNumber)
			continue
		}

		c.record(job, models.JobStatusQueued, "")
		c.metrics.ObserveJob(true)
		summary.Queued++
		summary.Jobs = append(summary.Jobs, job)
	}

	logger.WithFields(logrus.Fields{
		"queued": summary.Queued,
		"failed": summary.Failed,
	}).Info("Batch download completed")
	return summary, nil
}

func (c *DownloadController) record(job models.DownloadJob, status models.JobStatus, reason string) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.RecordJob(models.NewEmittedJob(job, status, reason)); err != nil {
		c.logger.WithError(err).WithField("job_id", job.JobID).Warn("Failed to record job")
	}
}

// selectSource returns the exact resolution match, or under the substitute
// policy the episode's highest source
func selectSource(record models.EpisodeStreamRecord, resolution int, policy models.MissingPolicy) (models.StreamSource, bool) {
	if source, ok := record.SourceFor(resolution); ok {
		return source, true
	}
	if policy == models.PolicySubstitute {
		return record.HighestSource()
	}
	return models.StreamSource{}, false
}

func newEpisodeJob(req SeasonDownloadRequest, episode int, source models.StreamSource) models.DownloadJob {
	season, ep := req.Season, episode
	return models.DownloadJob{
		JobID:       uuid.NewString(),
		ContentID:   models.EpisodeRef(req.ShowID, req.Season, episode).ContentID(),
		Season:      &season,
		Episode:     &ep,
		Title:       fmt.Sprintf("%s - S%02dE%02d", req.Title, req.Season, episode),
		PosterURL:   req.PosterURL,
		ResolutionP: source.ResolutionP,
		SourceURL:   source.FetchURL(),
		SizeLabel:   source.SizeLabel,
	}
}
