package utils

import (
	"bufio"
	"os"
	"strings"
)

// ProviderPolicy holds the provider exclusion and priority lists used to rank sources
type ProviderPolicy struct {
	exclude  map[string]struct{}
	priority map[string]struct{}
}

// NewProviderPolicy builds a policy from exclusion and priority name lists.
// Names match case-insensitively.
func NewProviderPolicy(exclude, priority []string) *ProviderPolicy {
	p := &ProviderPolicy{
		exclude:  make(map[string]struct{}),
		priority: make(map[string]struct{}),
	}
	for _, name := range exclude {
		p.exclude[normalizeProvider(name)] = struct{}{}
	}
	for _, name := range priority {
		p.priority[normalizeProvider(name)] = struct{}{}
	}
	return p
}

// LoadProviderList loads provider names from a file, one per line
func LoadProviderList(path string) ([]string, error) {
	// If file doesn't exist, return empty list
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []string{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var names []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" && !strings.HasPrefix(name, "#") {
			names = append(names, name)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return names, nil
}

// IsExcluded checks if a provider is on the exclusion list
func (p *ProviderPolicy) IsExcluded(sourceName string) bool {
	if p == nil {
		return false
	}
	_, ok := p.exclude[normalizeProvider(sourceName)]
	return ok
}

// IsPriority checks if a provider is on the priority allow-list
func (p *ProviderPolicy) IsPriority(sourceName string) bool {
	if p == nil {
		return false
	}
	_, ok := p.priority[normalizeProvider(sourceName)]
	return ok
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
