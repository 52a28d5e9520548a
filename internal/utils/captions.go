package utils

import (
	"net/url"
	"strings"

	"github.com/amaumene/reelarr/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ProxyCaptionURL rewrites a caption URL through the proxy template.
// The template carries a {url} placeholder; an empty template leaves the URL untouched.
func ProxyCaptionURL(template, captionURL string) string {
	if template == "" || captionURL == "" {
		return captionURL
	}
	if !strings.Contains(template, "{url}") {
		return template + url.QueryEscape(captionURL)
	}
	return strings.ReplaceAll(template, "{url}", url.QueryEscape(captionURL))
}

// LanguageName returns the English display name of a language code, or the code itself
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// PrepareCaptions proxies caption URLs and fills missing language names
func PrepareCaptions(captions []models.Caption, proxyTemplate string) []models.Caption {
	out := make([]models.Caption, 0, len(captions))
	for _, c := range captions {
		if c.URL == "" {
			continue
		}
		if c.LanguageName == "" {
			c.LanguageName = LanguageName(c.LanguageCode)
		}
		c.URL = ProxyCaptionURL(proxyTemplate, c.URL)
		out = append(out, c)
	}
	return out
}
