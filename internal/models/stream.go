package models

// RawStream is one externally reported stream candidate, before resolution
type RawStream struct {
	SourceName   string
	QualityLabel string // e.g. "1080", "720p", "HD"
	URL          string
	SizeLabel    string
}

// StreamSource is one resolved playable stream at a specific resolution.
// Within a resolved list ResolutionP values are unique.
type StreamSource struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	ResolutionP int    `json:"resolution"`
	SizeLabel   string `json:"size"`
	SourceName  string `json:"sourceName"`
}

// FetchURL returns the URL a download should use
func (s StreamSource) FetchURL() string {
	if s.DownloadURL != "" {
		return s.DownloadURL
	}
	return s.URL
}

// Caption is one subtitle track attached to a playback session
type Caption struct {
	LanguageCode string `json:"languageCode"`
	LanguageName string `json:"languageName"`
	URL          string `json:"url"`
}
