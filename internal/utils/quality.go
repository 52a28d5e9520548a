package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amaumene/reelarr/internal/models"
)

// ParseQuality reads the leading integer of a quality label ("1080p" -> 1080).
// Labels without a leading number parse to 0.
func ParseQuality(label string) int {
	label = strings.TrimSpace(label)
	if strings.HasPrefix(label, "+") {
		label = label[1:]
	}

	value := 0
	for _, r := range label {
		if r < '0' || r > '9' {
			break
		}
		value = value*10 + int(r-'0')
		if value > 1<<20 {
			break
		}
	}
	return value
}

// ResolveSources filters, ranks and deduplicates raw stream candidates:
// 1. Excluded providers are dropped
// 2. Priority providers sort first, ties break by quality descending (stable)
// 3. The first source per resolution wins
func ResolveSources(raw []models.RawStream, policy *ProviderPolicy) []models.StreamSource {
	type candidate struct {
		stream   models.RawStream
		quality  int
		priority bool
	}

	candidates := make([]candidate, 0, len(raw))
	for _, stream := range raw {
		if policy.IsExcluded(stream.SourceName) {
			continue
		}
		candidates = append(candidates, candidate{
			stream:   stream,
			quality:  ParseQuality(stream.QualityLabel),
			priority: policy.IsPriority(stream.SourceName),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		// PRIORITY 1: Allow-listed providers first
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority
		}
		// PRIORITY 2: Higher quality first
		return candidates[i].quality > candidates[j].quality
	})

	seen := make(map[int]struct{}, len(candidates))
	sources := make([]models.StreamSource, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.quality]; dup {
			continue
		}
		seen[c.quality] = struct{}{}

		sources = append(sources, models.StreamSource{
			ID:          sourceID(c.stream.SourceName, c.quality, len(sources)),
			URL:         c.stream.URL,
			ResolutionP: c.quality,
			SizeLabel:   c.stream.SizeLabel,
			SourceName:  c.stream.SourceName,
		})
	}

	return sources
}

func sourceID(sourceName string, resolution, index int) string {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(sourceName), " ", "-"))
	if name == "" {
		name = "source"
	}
	return fmt.Sprintf("%s-%dp-%d", name, resolution, index)
}
