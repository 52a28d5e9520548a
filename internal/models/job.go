package models

import "time"

// DownloadJob is one per-episode unit of work handed to the download manager.
// Its transfer lifecycle belongs to the manager, not to this service.
type DownloadJob struct {
	JobID       string `json:"jobId"`
	ContentID   string `json:"contentId"`
	Season      *int   `json:"season,omitempty"`
	Episode     *int   `json:"episode,omitempty"`
	Title       string `json:"title"`
	PosterURL   string `json:"posterUrl,omitempty"`
	ResolutionP int    `json:"resolution"`
	SourceURL   string `json:"sourceUrl"`
	SizeLabel   string `json:"size,omitempty"`
}

// EmittedJob is the ledger entry kept for every job handed to the manager
type EmittedJob struct {
	JobID     string    `boltholdKey:"JobID"`
	ContentID string    `boltholdIndex:"ContentID"`
	Status    JobStatus `boltholdIndex:"Status"`

	Title       string
	ResolutionP int
	SourceURL   string

	FailureReason string

	CreatedAtEpochMs int64
}

// NewEmittedJob builds a ledger entry for a job
func NewEmittedJob(job DownloadJob, status JobStatus, reason string) *EmittedJob {
	return &EmittedJob{
		JobID:            job.JobID,
		ContentID:        job.ContentID,
		Status:           status,
		Title:            job.Title,
		ResolutionP:      job.ResolutionP,
		SourceURL:        job.SourceURL,
		FailureReason:    reason,
		CreatedAtEpochMs: time.Now().UnixMilli(),
	}
}
