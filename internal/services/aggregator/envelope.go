package aggregator

import (
	"encoding/json"
	"fmt"

	"github.com/amaumene/reelarr/internal/models"
	"github.com/amaumene/reelarr/internal/utils"
)

// payloadPaths lists the nesting shapes the endpoint wraps its payload in, probed in order.
// The outermost object is used when none match.
var payloadPaths = [][]string{
	{"data", "downloadData", "data"},
	{"downloadData", "data"},
	{"data"},
}

// Download is one direct download entry of the payload
type Download struct {
	ID          string
	URL         string
	ResolutionP int
	SizeLabel   string
}

// Response is the decoded aggregation response
type Response struct {
	Downloads       []Download
	Captions        []models.Caption
	ExternalStreams []models.RawStream
}

type downloadItem struct {
	ID         flexString `json:"id"`
	URL        string     `json:"url"`
	Resolution flexString `json:"resolution"`
	Size       flexString `json:"size"`
}

type captionItem struct {
	Lan          string `json:"lan"`
	LanName      string `json:"lanName"`
	LanguageCode string `json:"languageCode"`
	LanguageName string `json:"languageName"`
	URL          string `json:"url"`
}

type externalStreamItem struct {
	Source     string     `json:"source"`
	SourceName string     `json:"sourceName"`
	Quality    flexString `json:"quality"`
	URL        string     `json:"url"`
	Size       flexString `json:"size"`
}

// Decode parses a raw response body.
// downloads and captions come from the unwrapped payload, externalStreams from the root.
func Decode(body []byte) (*Response, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	payload := unwrapPayload(root)

	var downloads []downloadItem
	if err := decodeField(payload, "downloads", &downloads); err != nil {
		return nil, err
	}
	var captions []captionItem
	if err := decodeField(payload, "captions", &captions); err != nil {
		return nil, err
	}
	var streams []externalStreamItem
	if err := decodeField(root, "externalStreams", &streams); err != nil {
		return nil, err
	}

	result := &Response{
		Downloads:       make([]Download, 0, len(downloads)),
		Captions:        make([]models.Caption, 0, len(captions)),
		ExternalStreams: make([]models.RawStream, 0, len(streams)),
	}

	for _, d := range downloads {
		if d.URL == "" {
			continue
		}
		result.Downloads = append(result.Downloads, Download{
			ID:          string(d.ID),
			URL:         d.URL,
			ResolutionP: utils.ParseQuality(string(d.Resolution)),
			SizeLabel:   sizeLabel(d.Size),
		})
	}

	for _, c := range captions {
		caption := models.Caption{
			LanguageCode: firstNonEmpty(c.LanguageCode, c.Lan),
			LanguageName: firstNonEmpty(c.LanguageName, c.LanName),
			URL:          c.URL,
		}
		result.Captions = append(result.Captions, caption)
	}

	for _, s := range streams {
		if s.URL == "" {
			continue
		}
		result.ExternalStreams = append(result.ExternalStreams, models.RawStream{
			SourceName:   firstNonEmpty(s.SourceName, s.Source),
			QualityLabel: string(s.Quality),
			URL:          s.URL,
			SizeLabel:    sizeLabel(s.Size),
		})
	}

	return result, nil
}

// unwrapPayload returns the first nested object matching payloadPaths, else root
func unwrapPayload(root map[string]json.RawMessage) map[string]json.RawMessage {
	for _, path := range payloadPaths {
		if obj, ok := dig(root, path); ok {
			return obj
		}
	}
	return root
}

func dig(obj map[string]json.RawMessage, path []string) (map[string]json.RawMessage, bool) {
	current := obj
	for _, key := range path {
		raw, ok := current[key]
		if !ok {
			return nil, false
		}
		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

// decodeField decodes obj[key] into dest; a missing or null field leaves dest empty
func decodeField(obj map[string]json.RawMessage, key string, dest interface{}) error {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
