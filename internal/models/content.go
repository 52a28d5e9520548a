package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidContentID is returned when a content identifier cannot be parsed
var ErrInvalidContentID = errors.New("invalid content id")

// ContentRef identifies a movie or a single episode of a show
type ContentRef struct {
	MediaType MediaType
	ID        string
	Season    int // 0 for movies
	Episode   int // 0 for movies
}

// MovieRef builds a reference to a movie
func MovieRef(id string) ContentRef {
	return ContentRef{MediaType: MediaTypeMovie, ID: id}
}

// EpisodeRef builds a reference to one episode of a show
func EpisodeRef(showID string, season, episode int) ContentRef {
	return ContentRef{MediaType: MediaTypeTV, ID: showID, Season: season, Episode: episode}
}

// IsEpisode reports whether the reference points at a show episode
func (r ContentRef) IsEpisode() bool {
	return r.MediaType == MediaTypeTV
}

// ContentID encodes the reference as movie-{id} or tv-{id}-{season}-{episode}
func (r ContentRef) ContentID() string {
	if r.IsEpisode() {
		return fmt.Sprintf("tv-%s-%d-%d", r.ID, r.Season, r.Episode)
	}
	return "movie-" + r.ID
}

// Next returns the reference for the following episode in the same season
func (r ContentRef) Next() ContentRef {
	next := r
	next.Episode++
	return next
}

func (r ContentRef) String() string {
	return r.ContentID()
}

// ParseContentID is the inverse of ContentID.
// Show ids may not contain dashes; season and episode are the last two fields.
func ParseContentID(contentID string) (ContentRef, error) {
	switch {
	case strings.HasPrefix(contentID, "movie-"):
		id := strings.TrimPrefix(contentID, "movie-")
		if id == "" {
			return ContentRef{}, fmt.Errorf("%w: %q", ErrInvalidContentID, contentID)
		}
		return MovieRef(id), nil
	case strings.HasPrefix(contentID, "tv-"):
		parts := strings.Split(strings.TrimPrefix(contentID, "tv-"), "-")
		if len(parts) != 3 || parts[0] == "" {
			return ContentRef{}, fmt.Errorf("%w: %q", ErrInvalidContentID, contentID)
		}
		season, err := strconv.Atoi(parts[1])
		if err != nil {
			return ContentRef{}, fmt.Errorf("%w: %q", ErrInvalidContentID, contentID)
		}
		episode, err := strconv.Atoi(parts[2])
		if err != nil {
			return ContentRef{}, fmt.Errorf("%w: %q", ErrInvalidContentID, contentID)
		}
		return EpisodeRef(parts[0], season, episode), nil
	}
	return ContentRef{}, fmt.Errorf("%w: %q", ErrInvalidContentID, contentID)
}
