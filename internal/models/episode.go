package models

// Episode describes one episode of a season to scan
type Episode struct {
	Number int    `json:"number"`
	Name   string `json:"name,omitempty"`
}

// EpisodeStreamRecord holds the sources found for one episode during a batch scan.
// Sources is empty when the scan failed or no provider matched.
type EpisodeStreamRecord struct {
	EpisodeNumber int            `json:"episode"`
	DisplayName   string         `json:"displayName"`
	Sources       []StreamSource `json:"sources"`
}

// Resolutions returns the resolutions offered by the episode, in source order
func (r EpisodeStreamRecord) Resolutions() []int {
	out := make([]int, 0, len(r.Sources))
	for _, s := range r.Sources {
		out = append(out, s.ResolutionP)
	}
	return out
}

// SourceFor returns the source at the given resolution
func (r EpisodeStreamRecord) SourceFor(resolution int) (StreamSource, bool) {
	for _, s := range r.Sources {
		if s.ResolutionP == resolution {
			return s, true
		}
	}
	return StreamSource{}, false
}

// HighestSource returns the highest resolution source of the episode
func (r EpisodeStreamRecord) HighestSource() (StreamSource, bool) {
	var best StreamSource
	found := false
	for _, s := range r.Sources {
		if !found || s.ResolutionP > best.ResolutionP {
			best = s
			found = true
		}
	}
	return best, found
}

// ResolutionAvailability counts the episodes offering one resolution
type ResolutionAvailability struct {
	ResolutionP  int `json:"resolution"`
	EpisodeCount int `json:"episodeCount"`
}
