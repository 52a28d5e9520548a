package controllers

import "github.com/amaumene/reelarr/internal/models"

// MissingEpisode is an episode lacking the selected resolution
type MissingEpisode struct {
	Episode      int    `json:"episode"`
	DisplayName  string `json:"displayName"`
	Alternatives []int  `json:"alternatives"`
}

// Reconciliation resolves one target resolution across the episodes of a season.
// Deciding what to do about missing episodes is left to the caller.
type Reconciliation struct {
	records      []models.EpisodeStreamRecord
	availability []models.ResolutionAvailability
}

// NewReconciliation builds a reconciliation over scanned records
func NewReconciliation(records []models.EpisodeStreamRecord) *Reconciliation {
	return &Reconciliation{
		records:      records,
		availability: BuildAvailability(records),
	}
}

// Availability returns the resolution histogram, highest resolution first
func (r *Reconciliation) Availability() []models.ResolutionAvailability {
	return r.availability
}

// DefaultResolution picks the resolution offered by the most episodes, the higher
// resolution winning ties. It reports false when no episode has any source.
func (r *Reconciliation) DefaultResolution() (int, bool) {
	best := models.ResolutionAvailability{}
	for _, a := range r.availability {
		if a.EpisodeCount > best.EpisodeCount ||
			(a.EpisodeCount == best.EpisodeCount && a.ResolutionP > best.ResolutionP) {
			best = a
		}
	}
	if best.EpisodeCount == 0 {
		return 0, false
	}
	return best.ResolutionP, true
}

// EpisodesMissing lists, in scan order, the episodes without the resolution
// along with the resolutions they do offer
func (r *Reconciliation) EpisodesMissing(resolution int) []MissingEpisode {
	missing := []MissingEpisode{}
	for _, record := range r.records {
		if _, ok := record.SourceFor(resolution); ok {
			continue
		}
		missing = append(missing, MissingEpisode{
			Episode:      record.EpisodeNumber,
			DisplayName:  record.DisplayName,
			Alternatives: record.Resolutions(),
		})
	}
	return missing
}
