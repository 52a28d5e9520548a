package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/amaumene/reelarr/internal/services/aggregator"
	"github.com/amaumene/reelarr/internal/utils"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// directSourceName labels candidates built from the downloads list
const directSourceName = "direct"

// SourceFetcher issues one aggregation request for a content item
type SourceFetcher interface {
	Fetch(ctx context.Context, ref models.ContentRef) (*aggregator.Response, error)
}

// ScanResult is the outcome of scanning one content item.
// A failed scan carries no sources and Succeeded is false.
type ScanResult struct {
	Sources   []models.StreamSource
	Captions  []models.Caption
	Succeeded bool
}

// Scanner resolves the sources of one content item
type Scanner interface {
	Scan(ctx context.Context, ref models.ContentRef) ScanResult
}

// EpisodeScanner fetches and resolves the sources of one movie or episode
type EpisodeScanner struct {
	fetcher       SourceFetcher
	policy        *utils.ProviderPolicy
	proxyTemplate string
	cache         *cache.Cache
	logger        *logrus.Logger
	metrics       *metrics.Metrics
}

// NewEpisodeScanner creates a new scanner. A zero cacheTTL disables caching.
func NewEpisodeScanner(fetcher SourceFetcher, policy *utils.ProviderPolicy, proxyTemplate string, cacheTTL time.Duration, logger *logrus.Logger, m *metrics.Metrics) *EpisodeScanner {
	s := &EpisodeScanner{
		fetcher:       fetcher,
		policy:        policy,
		proxyTemplate: proxyTemplate,
		logger:        logger,
		metrics:       m,
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// Scan never returns an error: network and parse failures yield Succeeded=false
func (s *EpisodeScanner) Scan(ctx context.Context, ref models.ContentRef) ScanResult {
	key := ref.ContentID()
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			return cached.(ScanResult)
		}
	}

	resp, err := s.fetcher.Fetch(ctx, ref)
	if err != nil {
		s.metrics.ObserveFetch(false)
		s.logger.WithError(err).WithField("content_id", key).Warn("Failed to fetch sources")
		return ScanResult{Sources: []models.StreamSource{}}
	}
	s.metrics.ObserveFetch(true)

	result := ScanResult{
		Sources:   s.resolve(resp),
		Captions:  utils.PrepareCaptions(resp.Captions, s.proxyTemplate),
		Succeeded: true,
	}

	s.logger.WithFields(logrus.Fields{
		"content_id": key,
		"sources":    len(result.Sources),
		"captions":   len(result.Captions),
	}).Debug("Sources resolved")

	if s.cache != nil {
		s.cache.SetDefault(key, result)
	}
	return result
}

// resolve ranks the external streams, falling back to the direct downloads when
// the provider reported none. Each source gets the download URL of its resolution.
func (s *EpisodeScanner) resolve(resp *aggregator.Response) []models.StreamSource {
	raw := resp.ExternalStreams
	if len(raw) == 0 {
		raw = make([]models.RawStream, 0, len(resp.Downloads))
		for _, d := range resp.Downloads {
			raw = append(raw, models.RawStream{
				SourceName:   directSourceName,
				QualityLabel: strconv.Itoa(d.ResolutionP),
				URL:          d.URL,
				SizeLabel:    d.SizeLabel,
			})
		}
	}

	sources := utils.ResolveSources(raw, s.policy)

	byResolution := make(map[int]aggregator.Download, len(resp.Downloads))
	for _, d := range resp.Downloads {
		if _, exists := byResolution[d.ResolutionP]; !exists {
			byResolution[d.ResolutionP] = d
		}
	}
	for i := range sources {
		d, ok := byResolution[sources[i].ResolutionP]
		if !ok {
			continue
		}
		sources[i].DownloadURL = d.URL
		if sources[i].SizeLabel == "" {
			sources[i].SizeLabel = d.SizeLabel
		}
	}
	return sources
}

// Invalidate drops the cached scan of a content item
func (s *EpisodeScanner) Invalidate(ref models.ContentRef) {
	if s.cache != nil {
		s.cache.Delete(ref.ContentID())
	}
}
