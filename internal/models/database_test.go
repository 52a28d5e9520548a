package models

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProgressRoundTrip(t *testing.T) {
	db := openTestDatabase(t)

	if _, err := db.GetProgress("movie-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	entry := &PlaybackProgress{ContentID: "movie-1", PositionSeconds: 42, DurationSeconds: 600, UpdatedAtEpochMs: 1}
	if err := db.UpsertProgress(entry); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}

	entry.PositionSeconds = 84
	if err := db.UpsertProgress(entry); err != nil {
		t.Fatalf("second UpsertProgress failed: %v", err)
	}

	got, err := db.GetProgress("movie-1")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if got.PositionSeconds != 84 || got.ContentID != "movie-1" {
		t.Errorf("Expected last write to win, got %+v", got)
	}

	if err := db.DeleteProgress("movie-1"); err != nil {
		t.Fatalf("DeleteProgress failed: %v", err)
	}
	if err := db.DeleteProgress("movie-1"); err != nil {
		t.Errorf("Deleting a missing entry should not fail: %v", err)
	}
}

func TestRecentlyWatchedOrdering(t *testing.T) {
	db := openTestDatabase(t)

	for i, id := range []string{"movie-1", "movie-2", "movie-3"} {
		if err := db.RecordWatched(&WatchHistory{ContentID: id, WatchedAtEpochMs: int64(i + 1)}); err != nil {
			t.Fatalf("RecordWatched failed: %v", err)
		}
	}

	entries, err := db.GetRecentlyWatched(2)
	if err != nil {
		t.Fatalf("GetRecentlyWatched failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ContentID != "movie-3" || entries[1].ContentID != "movie-2" {
		t.Errorf("Unexpected history order: %+v", entries)
	}
}

func TestJobLedgerPrune(t *testing.T) {
	db := openTestDatabase(t)

	old := NewEmittedJob(DownloadJob{JobID: "old", ContentID: "tv-1-1-1"}, JobStatusQueued, "")
	old.CreatedAtEpochMs = time.Now().Add(-48 * time.Hour).UnixMilli()
	fresh := NewEmittedJob(DownloadJob{JobID: "fresh", ContentID: "tv-1-1-2"}, JobStatusFailed, "no source")

	for _, job := range []*EmittedJob{old, fresh} {
		if err := db.RecordJob(job); err != nil {
			t.Fatalf("RecordJob failed: %v", err)
		}
	}

	if err := db.PruneJobsBefore(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("PruneJobsBefore failed: %v", err)
	}

	queued, err := db.GetJobsByStatus(JobStatusQueued)
	if err != nil {
		t.Fatalf("GetJobsByStatus failed: %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("Expected old job pruned, got %d", len(queued))
	}

	failed, err := db.GetJobsByContentID("tv-1-1-2")
	if err != nil {
		t.Fatalf("GetJobsByContentID failed: %v", err)
	}
	if len(failed) != 1 || failed[0].FailureReason != "no source" {
		t.Errorf("Expected fresh failed job kept, got %+v", failed)
	}
}
