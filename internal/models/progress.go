package models

// PlaybackProgress is the persisted resume position of one content item
type PlaybackProgress struct {
	ContentID        string  `json:"contentId" boltholdKey:"ContentID"`
	PositionSeconds  float64 `json:"positionSeconds"`
	DurationSeconds  float64 `json:"durationSeconds"`
	UpdatedAtEpochMs int64   `json:"updatedAtEpochMs"`
}

// Finished reports whether the position is within the last second of the content
func (p PlaybackProgress) Finished() bool {
	return p.DurationSeconds > 0 && p.PositionSeconds >= p.DurationSeconds-1
}

// WatchHistory is the "recently watched" record appended once per playback session
type WatchHistory struct {
	ContentID        string `boltholdKey:"ContentID"`
	Title            string
	PosterURL        string
	WatchedAtEpochMs int64 `boltholdIndex:"WatchedAtEpochMs"`
}
