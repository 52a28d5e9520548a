package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amaumene/reelarr/internal/api/handlers"
	"github.com/amaumene/reelarr/internal/config"
	"github.com/amaumene/reelarr/internal/controllers"
	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/amaumene/reelarr/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
)

type tableScanner map[string][]int

func (s tableScanner) Scan(ctx context.Context, ref models.ContentRef) controllers.ScanResult {
	resolutions, ok := s[ref.ContentID()]
	if !ok {
		return controllers.ScanResult{Sources: []models.StreamSource{}}
	}
	sources := make([]models.StreamSource, 0, len(resolutions))
	for _, res := range resolutions {
		sources = append(sources, models.StreamSource{URL: "u", ResolutionP: res})
	}
	return controllers.ScanResult{Sources: sources, Succeeded: true}
}

type recordingSubmitter struct {
	jobs []models.DownloadJob
}

func (s *recordingSubmitter) Enqueue(ctx context.Context, job models.DownloadJob) error {
	s.jobs = append(s.jobs, job)
	return nil
}

type fixedCounter int

func (c fixedCounter) Active() int { return int(c) }

type testServer struct {
	handler   http.Handler
	db        *models.Database
	submitter *recordingSubmitter
}

func newTestServer(t *testing.T, scanner controllers.Scanner) *testServer {
	t.Helper()
	logger := utils.NewDiscardLogger()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "reelarr.db"))
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	submitter := &recordingSubmitter{}
	seasonCtrl := controllers.NewSeasonController(
		controllers.NewBatchScanner(scanner, 0, logger, m),
		controllers.NewDownloadController(submitter, db, 0, logger, m),
		logger,
	)
	var sessions handlers.SessionCounter = fixedCounter(1)

	server := NewServer(&config.Config{ServerPort: "0"}, db, controllers.NewProgressStore(db, logger, m), seasonCtrl, sessions, reg, logger)
	return &testServer{handler: server.Handler(), db: db, submitter: submitter}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, tableScanner{})

	if rec := s.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("Unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/health", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
	rec := s.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "reelarr_playback_sessions_active") {
		t.Errorf("Expected reelarr metrics, got %d", rec.Code)
	}
}

func TestProgressEndpoints(t *testing.T) {
	s := newTestServer(t, tableScanner{})

	if rec := s.do(http.MethodGet, "/api/progress/movie-550", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/api/progress/movie-550", `{"positionSeconds": 42, "durationSeconds": 600}`); rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/api/progress/movie-550", "")
	var progress models.PlaybackProgress
	if err := json.NewDecoder(rec.Body).Decode(&progress); err != nil {
		t.Fatalf("Failed to decode progress: %v", err)
	}
	if progress.ContentID != "movie-550" || progress.PositionSeconds != 42 || progress.UpdatedAtEpochMs == 0 {
		t.Errorf("Unexpected progress: %+v", progress)
	}

	if rec := s.do(http.MethodDelete, "/api/progress/movie-550", ""); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/progress/movie-550", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/progress/garbage", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid id, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/api/progress/movie-1", `{"positionSeconds": -1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative position, got %d", rec.Code)
	}
}

func TestSeasonScanEndpoint(t *testing.T) {
	s := newTestServer(t, tableScanner{
		"tv-7-1-1": {1080, 720},
		"tv-7-1-2": {720},
	})

	rec := s.do(http.MethodPost, "/api/seasons/scan", `{"showId": "7", "season": 1, "episodeCount": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var plan controllers.SeasonPlan
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("Failed to decode plan: %v", err)
	}
	if plan.Resolution != 720 || len(plan.Missing) != 0 || len(plan.Scan.Availability) != 2 {
		t.Errorf("Unexpected plan: %+v", plan)
	}

	if rec := s.do(http.MethodPost, "/api/seasons/scan", `{"showId": "7"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing season, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/seasons/scan", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestSeasonDownloadEndpoint(t *testing.T) {
	s := newTestServer(t, tableScanner{
		"tv-7-1-1": {1080, 720},
		"tv-7-1-2": {720},
	})

	rec := s.do(http.MethodPost, "/api/seasons/download", `{"showId": "7", "season": 1, "episodeCount": 2, "title": "Show", "policy": "skip"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.DownloadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Summary == nil || resp.Summary.Queued != 2 || len(s.submitter.jobs) != 2 {
		t.Errorf("Unexpected summary: %+v", resp.Summary)
	}

	rec = s.do(http.MethodPost, "/api/seasons/download", `{"showId": "7", "season": 1, "episodeCount": 2, "resolution": 1080, "policy": "abort"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 under abort policy, got %d", rec.Code)
	}

	status := s.do(http.MethodGet, "/status", "")
	var st handlers.StatusResponse
	if err := json.NewDecoder(status.Body).Decode(&st); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if st.QueuedJobs != 2 || st.ActiveSessions != 1 {
		t.Errorf("Unexpected status: %+v", st)
	}
}

func TestSeasonDownloadWithoutSources(t *testing.T) {
	s := newTestServer(t, tableScanner{})

	rec := s.do(http.MethodPost, "/api/seasons/download", `{"showId": "7", "season": 1, "episodeCount": 2}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
}

func TestSeasonDownloadRejectsUnknownPolicy(t *testing.T) {
	s := newTestServer(t, tableScanner{
		"tv-7-1-1": {720},
		"tv-7-1-2": {1080},
	})

	rec := s.do(http.MethodPost, "/api/seasons/download", `{"showId": "7", "season": 1, "episodeCount": 2, "resolution": 720, "policy": "abrot"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(s.submitter.jobs) != 0 {
		t.Errorf("Expected nothing queued, got %d jobs", len(s.submitter.jobs))
	}
}
