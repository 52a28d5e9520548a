package models

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = bolthold.ErrNotFound

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Progress operations

// GetProgress retrieves the stored progress for a content id
func (db *Database) GetProgress(contentID string) (*PlaybackProgress, error) {
	var progress PlaybackProgress
	if err := db.store.Get(contentID, &progress); err != nil {
		return nil, err
	}
	progress.ContentID = contentID
	return &progress, nil
}

// UpsertProgress writes the progress entry, last write wins
func (db *Database) UpsertProgress(progress *PlaybackProgress) error {
	return db.store.Upsert(progress.ContentID, progress)
}

// DeleteProgress removes the progress entry for a content id
func (db *Database) DeleteProgress(contentID string) error {
	err := db.store.Delete(contentID, &PlaybackProgress{})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil
	}
	return err
}

// GetAllProgress retrieves every progress entry
func (db *Database) GetAllProgress() ([]*PlaybackProgress, error) {
	var entries []*PlaybackProgress
	err := db.store.Find(&entries, nil)
	return entries, err
}

// Watch history operations

// RecordWatched upserts the recently watched record for a content id
func (db *Database) RecordWatched(entry *WatchHistory) error {
	if entry.WatchedAtEpochMs == 0 {
		entry.WatchedAtEpochMs = time.Now().UnixMilli()
	}
	return db.store.Upsert(entry.ContentID, entry)
}

// GetRecentlyWatched returns up to limit history entries, newest first
func (db *Database) GetRecentlyWatched(limit int) ([]*WatchHistory, error) {
	var entries []*WatchHistory
	if err := db.store.Find(&entries, nil); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].WatchedAtEpochMs > entries[j].WatchedAtEpochMs
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Job ledger operations

// RecordJob stores the ledger entry of an emitted job
func (db *Database) RecordJob(job *EmittedJob) error {
	return db.store.Upsert(job.JobID, job)
}

// GetJobsByStatus retrieves all ledger entries with a specific status
func (db *Database) GetJobsByStatus(status JobStatus) ([]*EmittedJob, error) {
	var jobs []*EmittedJob
	err := db.store.Find(&jobs, bolthold.Where("Status").Eq(status))
	return jobs, err
}

// GetJobsByContentID retrieves all ledger entries for a content id
func (db *Database) GetJobsByContentID(contentID string) ([]*EmittedJob, error) {
	var jobs []*EmittedJob
	err := db.store.Find(&jobs, bolthold.Where("ContentID").Eq(contentID))
	return jobs, err
}

// PruneJobsBefore deletes ledger entries created before the cutoff
func (db *Database) PruneJobsBefore(cutoff time.Time) error {
	return db.store.DeleteMatching(&EmittedJob{},
		bolthold.Where("CreatedAtEpochMs").Lt(cutoff.UnixMilli()))
}
