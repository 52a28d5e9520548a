package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amaumene/reelarr/internal/models"
)

func sourcesAt(resolutions ...int) []models.StreamSource {
	out := make([]models.StreamSource, 0, len(resolutions))
	for _, res := range resolutions {
		out = append(out, models.StreamSource{
			ID:          fmt.Sprintf("moviebox-%dp-0", res),
			URL:         fmt.Sprintf("https://cdn.example/%dp.m3u8", res),
			ResolutionP: res,
			SourceName:  "MovieBox",
		})
	}
	return out
}

// fakeScanner answers from a table keyed by content id
type fakeScanner struct {
	mu      sync.Mutex
	results map[string]ScanResult
	calls   []string
	onScan  func(call int)
}

func (f *fakeScanner) Scan(ctx context.Context, ref models.ContentRef) ScanResult {
	f.mu.Lock()
	f.calls = append(f.calls, ref.ContentID())
	call := len(f.calls)
	result, ok := f.results[ref.ContentID()]
	hook := f.onScan
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if !ok {
		return ScanResult{Sources: []models.StreamSource{}}
	}
	return result
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []models.DownloadJob
	fail map[int]error // by episode
}

func (f *fakeSubmitter) Enqueue(ctx context.Context, job models.DownloadJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.Episode != nil {
		if err := f.fail[*job.Episode]; err != nil {
			return err
		}
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeLedger struct {
	entries []*models.EmittedJob
	err     error
}

func (f *fakeLedger) RecordJob(job *models.EmittedJob) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, job)
	return nil
}

var errUpstream = errors.New("upstream unavailable")
