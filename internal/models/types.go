package models

import (
	"errors"
	"fmt"
	"strings"
)

// MediaType represents the type of media (movie or tv show)
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// MissingPolicy decides what happens to episodes lacking the target resolution
type MissingPolicy string

const (
	PolicyAbort      MissingPolicy = "abort"      // Queue nothing when any episode is missing
	PolicySkip       MissingPolicy = "skip"       // Queue only episodes offering the target
	PolicySubstitute MissingPolicy = "substitute" // Fall back to each episode's highest resolution
)

// ErrUnknownPolicy is returned for a missing policy name that is not recognised
var ErrUnknownPolicy = errors.New("unknown missing policy")

// ParseMissingPolicy maps a user supplied string to a policy. Empty means skip.
func ParseMissingPolicy(value string) (MissingPolicy, error) {
	switch policy := MissingPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return PolicySkip, nil
	case PolicyAbort, PolicySkip, PolicySubstitute:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q (want abort, skip or substitute)", ErrUnknownPolicy, value)
	}
}

// JobStatus represents the status of an emitted download job
type JobStatus string

const (
	JobStatusQueued JobStatus = "queued" // Accepted by the download manager
	JobStatusFailed JobStatus = "failed" // No acceptable source or rejected on submission
)
