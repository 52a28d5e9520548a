package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoSources is returned when playback is requested with nothing to play
	ErrNoSources = errors.New("no playable sources")
	// ErrSessionClosed is returned by operations on a torn-down session
	ErrSessionClosed = errors.New("playback session closed")
	// ErrInvalidQuality is returned for a quality index outside the source list
	ErrInvalidQuality = errors.New("quality index out of range")
)

// State is the playback state of a session
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StateBuffering
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProgressStore is the resume position store used by a session
type ProgressStore interface {
	Get(contentID string) (*models.PlaybackProgress, bool)
	Put(contentID string, positionSeconds, durationSeconds float64)
}

// HistoryRecorder appends "recently watched" entries
type HistoryRecorder interface {
	RecordWatched(contentID, title, posterURL string)
}

// Flusher persists a playback position on demand
type Flusher interface {
	FlushProgress()
}

// Settings are the timing knobs of a session
type Settings struct {
	ResumeThreshold time.Duration
	ResumeRewind    time.Duration
	SwitchSettle    time.Duration
	Countdown       time.Duration
}

// DefaultSettings returns the stock timings
func DefaultSettings() Settings {
	return Settings{
		ResumeThreshold: 10 * time.Second,
		ResumeRewind:    5 * time.Second,
		SwitchSettle:    200 * time.Millisecond,
		Countdown:       10 * time.Second,
	}
}

// Options describe what a session plays
type Options struct {
	Content   models.ContentRef
	Title     string
	PosterURL string
	Sources   []models.StreamSource
	Captions  []models.Caption
	Next      *models.ContentRef // known next episode, nil for movies and season finales
	AutoPlay  bool
}

// Deps are the long-lived collaborators shared by every session
type Deps struct {
	Factory  Factory
	Progress ProgressStore
	History  HistoryRecorder
	Clock    Clock
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Settings Settings

	// Advance is called once the session has been torn down after an episode ended
	Advance func(next models.ContentRef)
}

type slot struct {
	inst  Instance
	index int
	gen   int
}

type qualitySwitch struct {
	index  int
	ready  bool
	settle Timer
}

// Session is the state machine of one playback. Player callbacks, user
// controls and timers all serialize on mu.
type Session struct {
	opts Options
	deps Deps

	mu              sync.Mutex
	state           State
	paused          bool
	primary         *slot
	shadow          *slot
	pending         *qualitySwitch
	currentIndex    int
	resumeAt        float64
	historyRecorded bool
	countdown       *Countdown
	closed          bool
	lastErr         error
	gen             int
}

// NewSession builds an idle session
func NewSession(opts Options, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &Session{
		opts:   opts,
		deps:   deps,
		state:  StateIdle,
		paused: !opts.AutoPlay,
	}
}

// ContentID returns the progress key of the content being played
func (s *Session) ContentID() string {
	return s.opts.Content.ContentID()
}

// Sources returns the resolved source list
func (s *Session) Sources() []models.StreamSource {
	return s.opts.Sources
}

// Captions returns the captions attached to the session
func (s *Session) Captions() []models.Caption {
	return s.opts.Captions
}

// Start loads the first source and moves to Loading
func (s *Session) Start() error {
	if len(s.opts.Sources) == 0 {
		return ErrNoSources
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateIdle {
		return fmt.Errorf("session already started (%s)", s.state)
	}

	if s.deps.Progress != nil {
		if p, ok := s.deps.Progress.Get(s.ContentID()); ok {
			s.resumeAt = ResumePosition(p, s.deps.Settings.ResumeThreshold, s.deps.Settings.ResumeRewind)
		}
	}

	inst, gen, err := s.newInstanceLocked()
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	source := s.opts.Sources[0]
	if err := inst.Load(source.URL); err != nil {
		inst.Release()
		return fmt.Errorf("failed to load source %s: %w", source.ID, err)
	}

	s.primary = &slot{inst: inst, index: 0, gen: gen}
	s.currentIndex = 0
	s.state = StateLoading

	s.log().WithFields(logrus.Fields{
		"source":     source.SourceName,
		"resolution": source.ResolutionP,
		"resume_at":  s.resumeAt,
	}).Info("Playback session started")
	return nil
}

func (s *Session) newInstanceLocked() (Instance, int, error) {
	s.gen++
	gen := s.gen
	inst, err := s.deps.Factory.NewInstance(func(ev Event) { s.handleEvent(gen, ev) })
	if err != nil {
		return nil, 0, err
	}
	return inst, gen, nil
}

func (s *Session) handleEvent(gen int, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	switch {
	case s.primary != nil && s.primary.gen == gen:
		s.handlePrimaryLocked(ev)
	case s.shadow != nil && s.shadow.gen == gen:
		s.handleShadowLocked(ev)
	}
}

func (s *Session) handlePrimaryLocked(ev Event) {
	switch ev.Kind {
	case EventReady:
		if s.state != StateLoading {
			return
		}
		inst := s.primary.inst
		if s.resumeAt > 0 {
			if err := inst.Seek(s.resumeAt); err != nil {
				s.log().WithError(err).Warn("Failed to seek to resume position")
			}
		}
		if !s.paused {
			if err := inst.Play(); err != nil {
				s.log().WithError(err).Warn("Failed to start playback")
				s.paused = true
			}
		}
		s.state = StatePlaying

	case EventBufferingStarted:
		if s.state == StatePlaying {
			s.state = StateBuffering
		}

	case EventBufferingEnded:
		if s.state == StateBuffering {
			s.state = StatePlaying
		}

	case EventTimeUpdate:
		s.maybeRecordHistoryLocked()

	case EventEnded:
		if s.state != StatePlaying && s.state != StateBuffering {
			return
		}
		s.abortSwitchLocked(errors.New("media ended"))
		s.state = StateEnded
		s.flushLocked()
		s.startCountdownLocked()

	case EventError:
		s.lastErr = ev.Err
		if s.lastErr == nil {
			s.lastErr = errors.New("player error")
		}
		s.log().WithError(s.lastErr).Error("Playback failed")
		if s.state == StatePlaying || s.state == StateBuffering {
			s.flushLocked()
		}
		s.abortSwitchLocked(s.lastErr)
		s.primary.inst.Release()
		s.primary = nil
		s.state = StateIdle
	}
}

func (s *Session) maybeRecordHistoryLocked() {
	if s.historyRecorded || s.deps.History == nil || s.primary == nil {
		return
	}
	inst := s.primary.inst
	if inst.Position() <= watchedThreshold(inst.Duration()) {
		return
	}
	s.historyRecorded = true
	s.deps.History.RecordWatched(s.ContentID(), s.opts.Title, s.opts.PosterURL)
}

func (s *Session) startCountdownLocked() {
	if s.opts.Next == nil || s.deps.Advance == nil {
		return
	}
	next := *s.opts.Next
	s.countdown = StartCountdown(s.deps.Clock, s.deps.Settings.Countdown, next, s.advance)
	s.log().WithFields(logrus.Fields{
		"next":      next.ContentID(),
		"countdown": s.deps.Settings.Countdown,
	}).Info("Next episode countdown started")
}

// advance runs on the countdown's single winning path, never under mu
func (s *Session) advance(next models.ContentRef) {
	s.Close()
	s.deps.Metrics.ObserveAdvance()
	s.log().WithField("next", next.ContentID()).Info("Advancing to next episode")
	s.deps.Advance(next)
}

// PlayNextNow skips the rest of the countdown
func (s *Session) PlayNextNow() bool {
	s.mu.Lock()
	cd := s.countdown
	s.mu.Unlock()
	if cd == nil {
		return false
	}
	return cd.PlayNow()
}

// CancelNext stops the countdown and leaves the session ended and paused
func (s *Session) CancelNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown == nil || !s.countdown.Cancel() {
		return false
	}
	s.paused = true
	return true
}

// Pause pauses playback
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if err := s.primary.inst.Pause(); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	s.paused = true
	if s.shadowReadyLocked() {
		_ = s.shadow.inst.Pause()
	}
	return nil
}

// Play resumes playback
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if err := s.primary.inst.Play(); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	s.paused = false
	if s.shadowReadyLocked() {
		_ = s.shadow.inst.Play()
	}
	return nil
}

// SeekTo moves the visible instance, and a ready hidden one with it
func (s *Session) SeekTo(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.activeLocked(); err != nil {
		return err
	}
	if seconds < 0 {
		seconds = 0
	}
	if err := s.primary.inst.Seek(seconds); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	if s.shadowReadyLocked() {
		if err := s.shadow.inst.Seek(seconds); err != nil {
			s.failSwitchLocked(err)
		}
	}
	return nil
}

func (s *Session) activeLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StatePlaying && s.state != StateBuffering {
		return fmt.Errorf("not playing (%s)", s.state)
	}
	return nil
}

// FlushProgress persists the current position while playing or buffering
func (s *Session) FlushProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.state == StatePlaying || s.state == StateBuffering {
		s.flushLocked()
	}
}

func (s *Session) flushLocked() {
	if s.primary == nil || s.deps.Progress == nil {
		return
	}
	inst := s.primary.inst
	s.deps.Progress.Put(s.ContentID(), inst.Position(), inst.Duration())
}

// Close tears the session down. The final position is written before it returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	if s.countdown != nil {
		s.countdown.Cancel()
	}
	switch s.state {
	case StatePlaying, StateBuffering, StateEnded:
		s.flushLocked()
	}
	s.abortSwitchLocked(ErrSessionClosed)
	if s.primary != nil {
		s.primary.inst.Release()
		s.primary = nil
	}
	s.state = StateIdle
	s.log().Debug("Playback session closed")
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ContentID     string
	State         State
	Paused        bool
	Switching     bool
	PendingIndex  int // -1 when no switch is in flight
	CurrentIndex  int
	Source        *models.StreamSource
	Position      float64
	Duration      float64
	NextEpisode   *models.ContentRef
	NextCountdown time.Duration
	Err           error
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ContentID:    s.ContentID(),
		State:        s.state,
		Paused:       s.paused,
		Switching:    s.pending != nil,
		PendingIndex: -1,
		CurrentIndex: s.currentIndex,
		Err:          s.lastErr,
	}
	if s.pending != nil {
		snap.PendingIndex = s.pending.index
	}
	if s.primary != nil {
		source := s.opts.Sources[s.primary.index]
		snap.Source = &source
		snap.Position = s.primary.inst.Position()
		snap.Duration = s.primary.inst.Duration()
	}
	if s.countdown != nil && s.countdown.Pending() {
		next := s.countdown.Next()
		snap.NextEpisode = &next
		snap.NextCountdown = s.countdown.Remaining()
	}
	return snap
}

func (s *Session) log() *logrus.Entry {
	return s.deps.Logger.WithField("content_id", s.ContentID())
}
