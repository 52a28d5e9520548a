package playback

import (
	"time"

	"github.com/amaumene/reelarr/internal/models"
)

// ResumePosition returns where playback should start given the stored progress.
// Finished content and positions at or below threshold start from zero.
func ResumePosition(p *models.PlaybackProgress, threshold, rewind time.Duration) float64 {
	if p == nil || p.Finished() {
		return 0
	}
	if p.PositionSeconds <= threshold.Seconds() {
		return 0
	}
	pos := p.PositionSeconds - rewind.Seconds()
	if pos < 0 {
		return 0
	}
	return pos
}

// watchedThreshold is the elapsed position after which a session counts as watched:
// 30 seconds or 10% of the duration, whichever is smaller
func watchedThreshold(duration float64) float64 {
	const floor = 30.0
	if duration <= 0 {
		return floor
	}
	if tenth := duration / 10; tenth < floor {
		return tenth
	}
	return floor
}
