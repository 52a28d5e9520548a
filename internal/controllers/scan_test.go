package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/amaumene/reelarr/internal/models"
	"github.com/amaumene/reelarr/internal/services/aggregator"
	"github.com/amaumene/reelarr/internal/utils"
)

type fakeFetcher struct {
	resp  *aggregator.Response
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref models.ContentRef) (*aggregator.Response, error) {
	f.calls++
	return f.resp, f.err
}

func newTestScanner(fetcher SourceFetcher, ttl time.Duration) *EpisodeScanner {
	policy := utils.NewProviderPolicy([]string{"Streamtape"}, []string{"MovieBox"})
	return NewEpisodeScanner(fetcher, policy, "https://proxy.example/sub?u={url}", ttl, utils.NewDiscardLogger(), nil)
}

func TestScanResolvesExternalStreams(t *testing.T) {
	fetcher := &fakeFetcher{resp: &aggregator.Response{
		Downloads: []aggregator.Download{
			{URL: "https://dl.example/720.mp4", ResolutionP: 720, SizeLabel: "700 MB"},
		},
		Captions: []models.Caption{
			{LanguageCode: "en", URL: "https://subs.example/en.vtt"},
			{LanguageCode: "fr"},
		},
		ExternalStreams: []models.RawStream{
			{SourceName: "Streamtape", QualityLabel: "1080p", URL: "bad"},
			{SourceName: "Lulu", QualityLabel: "1080p", URL: "lulu-1080"},
			{SourceName: "MovieBox", QualityLabel: "720p", URL: "mb-720"},
			{SourceName: "Lulu", QualityLabel: "720p", URL: "lulu-720"},
		},
	}}

	result := newTestScanner(fetcher, 0).Scan(context.Background(), models.EpisodeRef("1", 1, 1))
	if !result.Succeeded {
		t.Fatal("Expected successful scan")
	}
	if len(result.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %+v", result.Sources)
	}
	if result.Sources[0].URL != "mb-720" || result.Sources[0].DownloadURL != "https://dl.example/720.mp4" {
		t.Errorf("Priority 720p source should come first with its download URL: %+v", result.Sources[0])
	}
	if result.Sources[0].SizeLabel != "700 MB" {
		t.Errorf("Expected size from downloads, got %q", result.Sources[0].SizeLabel)
	}
	if result.Sources[1].URL != "lulu-1080" || result.Sources[1].DownloadURL != "" {
		t.Errorf("Unexpected second source: %+v", result.Sources[1])
	}
	if len(result.Captions) != 1 || result.Captions[0].LanguageName != "English" {
		t.Errorf("Unexpected captions: %+v", result.Captions)
	}
}

func TestScanFallsBackToDownloads(t *testing.T) {
	fetcher := &fakeFetcher{resp: &aggregator.Response{
		Downloads: []aggregator.Download{
			{URL: "https://dl.example/480.mp4", ResolutionP: 480},
			{URL: "https://dl.example/1080.mp4", ResolutionP: 1080},
		},
	}}

	result := newTestScanner(fetcher, 0).Scan(context.Background(), models.MovieRef("550"))
	if len(result.Sources) != 2 {
		t.Fatalf("Expected 2 direct sources, got %+v", result.Sources)
	}
	first := result.Sources[0]
	if first.ResolutionP != 1080 || first.SourceName != directSourceName || first.FetchURL() != "https://dl.example/1080.mp4" {
		t.Errorf("Unexpected first direct source: %+v", first)
	}
}

func TestScanFailureYieldsNoSources(t *testing.T) {
	fetcher := &fakeFetcher{err: errUpstream}
	scanner := newTestScanner(fetcher, time.Minute)

	for i := 0; i < 2; i++ {
		result := scanner.Scan(context.Background(), models.MovieRef("550"))
		if result.Succeeded || result.Sources == nil || len(result.Sources) != 0 {
			t.Errorf("Expected failed scan with empty sources, got %+v", result)
		}
	}
	if fetcher.calls != 2 {
		t.Errorf("Failures must not be cached, got %d fetches", fetcher.calls)
	}
}

func TestScanCachesSuccess(t *testing.T) {
	fetcher := &fakeFetcher{resp: &aggregator.Response{
		ExternalStreams: []models.RawStream{{SourceName: "MovieBox", QualityLabel: "720", URL: "u"}},
	}}
	scanner := newTestScanner(fetcher, time.Minute)
	ref := models.EpisodeRef("1", 1, 1)

	scanner.Scan(context.Background(), ref)
	scanner.Scan(context.Background(), ref)
	if fetcher.calls != 1 {
		t.Errorf("Expected a single fetch, got %d", fetcher.calls)
	}

	scanner.Invalidate(ref)
	scanner.Scan(context.Background(), ref)
	if fetcher.calls != 2 {
		t.Errorf("Expected refetch after invalidation, got %d", fetcher.calls)
	}
}
