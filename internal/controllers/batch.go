package controllers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/amaumene/reelarr/internal/controllers")

// BatchProgress is reported after every episode of a batch scan
type BatchProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Status  string `json:"status"`
}

// SeasonScan is the result of scanning every episode of a season
type SeasonScan struct {
	ShowID       string                          `json:"showId"`
	Season       int                             `json:"season"`
	Records      []models.EpisodeStreamRecord    `json:"episodes"`
	Availability []models.ResolutionAvailability `json:"availability"`
	Cancelled    bool                            `json:"cancelled"`
}

// BatchScanner scans the episodes of a season one at a time
type BatchScanner struct {
	scanner Scanner
	delay   time.Duration
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewBatchScanner creates a new batch scanner
func NewBatchScanner(scanner Scanner, delay time.Duration, logger *logrus.Logger, m *metrics.Metrics) *BatchScanner {
	return &BatchScanner{
		scanner: scanner,
		delay:   delay,
		logger:  logger,
		metrics: m,
	}
}

// ScanSeason scans the episodes sequentially with a fixed delay between requests.
// onProgress may be nil. When ctx is cancelled the records produced so far are
// returned together with ctx.Err().
func (b *BatchScanner) ScanSeason(ctx context.Context, showID string, season int, episodes []models.Episode, onProgress func(BatchProgress)) (*SeasonScan, error) {
	ctx, span := tracer.Start(ctx, "BatchScanner.ScanSeason")
	defer span.End()
	span.SetAttributes(
		attribute.String("show_id", showID),
		attribute.Int("season", season),
		attribute.Int("episodes", len(episodes)),
	)

	logger := b.logger.WithFields(logrus.Fields{
		"show_id": showID,
		"season":  season,
	})
	logger.WithField("episodes", len(episodes)).Info("Starting season scan")

	scan := &SeasonScan{
		ShowID:  showID,
		Season:  season,
		Records: make([]models.EpisodeStreamRecord, 0, len(episodes)),
	}
	total := len(episodes)

	for i, ep := range episodes {
		if i > 0 && b.delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(b.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			scan.Cancelled = true
			scan.Availability = BuildAvailability(scan.Records)
			logger.WithField("scanned", len(scan.Records)).Warn("Season scan cancelled")
			return scan, err
		}

		result := b.scanner.Scan(ctx, models.EpisodeRef(showID, season, ep.Number))
		b.metrics.ObserveEpisodeScan(result.Succeeded)

		record := models.EpisodeStreamRecord{
			EpisodeNumber: ep.Number,
			DisplayName:   episodeDisplayName(ep),
			Sources:       result.Sources,
		}
		scan.Records = append(scan.Records, record)

		if onProgress != nil {
			onProgress(BatchProgress{
				Current: i + 1,
				Total:   total,
				Status:  progressStatus(record, result.Succeeded),
			})
		}
	}

	scan.Availability = BuildAvailability(scan.Records)
	logger.WithFields(logrus.Fields{
		"scanned":     len(scan.Records),
		"resolutions": len(scan.Availability),
	}).Info("Season scan completed")
	return scan, nil
}

// BuildAvailability counts, per resolution, the episodes offering it.
// The result is sorted by resolution descending.
func BuildAvailability(records []models.EpisodeStreamRecord) []models.ResolutionAvailability {
	counts := make(map[int]int)
	for _, r := range records {
		seen := make(map[int]struct{}, len(r.Sources))
		for _, s := range r.Sources {
			if _, dup := seen[s.ResolutionP]; dup {
				continue
			}
			seen[s.ResolutionP] = struct{}{}
			counts[s.ResolutionP]++
		}
	}

	availability := make([]models.ResolutionAvailability, 0, len(counts))
	for res, count := range counts {
		availability = append(availability, models.ResolutionAvailability{ResolutionP: res, EpisodeCount: count})
	}
	sort.Slice(availability, func(i, j int) bool {
		return availability[i].ResolutionP > availability[j].ResolutionP
	})
	return availability
}

func episodeDisplayName(ep models.Episode) string {
	if ep.Name != "" {
		return fmt.Sprintf("E%02d - %s", ep.Number, ep.Name)
	}
	return fmt.Sprintf("Episode %d", ep.Number)
}

func progressStatus(record models.EpisodeStreamRecord, succeeded bool) string {
	switch {
	case !succeeded:
		return fmt.Sprintf("%s: scan failed", record.DisplayName)
	case len(record.Sources) == 0:
		return fmt.Sprintf("%s: no sources", record.DisplayName)
	default:
		return fmt.Sprintf("%s: %d resolutions", record.DisplayName, len(record.Sources))
	}
}
