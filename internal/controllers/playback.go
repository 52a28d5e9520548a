package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/models"
	"github.com/amaumene/reelarr/internal/playback"
	"github.com/sirupsen/logrus"
)

// SessionRegistry tracks live sessions for periodic progress flushing
type SessionRegistry interface {
	Register(f playback.Flusher)
	Unregister(f playback.Flusher)
}

// OpenRequest describes the content to play
type OpenRequest struct {
	Content      models.ContentRef
	Title        string
	PosterURL    string
	EpisodeCount int // episodes in the season, 0 when unknown
	AutoPlay     bool
}

// PlaybackController owns the single active playback session and the
// hand-off from one episode to the next
type PlaybackController struct {
	scanner  Scanner
	deps     playback.Deps
	registry SessionRegistry
	logger   *logrus.Logger

	mu      sync.Mutex
	current *playback.Session
}

// NewPlaybackController creates a new playback controller.
// deps.Advance is managed by the controller and is overwritten per session.
func NewPlaybackController(scanner Scanner, deps playback.Deps, registry SessionRegistry, logger *logrus.Logger, m *metrics.Metrics) *PlaybackController {
	deps.Logger = logger
	deps.Metrics = m
	return &PlaybackController{
		scanner:  scanner,
		deps:     deps,
		registry: registry,
		logger:   logger,
	}
}

// Open scans the content, tears down the previous session and starts a new one
func (c *PlaybackController) Open(ctx context.Context, req OpenRequest) (*playback.Session, error) {
	result := c.scanner.Scan(ctx, req.Content)
	if len(result.Sources) == 0 {
		c.logger.WithField("content_id", req.Content.ContentID()).Warn("No playable sources")
		return nil, fmt.Errorf("%s: %w", req.Content.ContentID(), playback.ErrNoSources)
	}

	opts := playback.Options{
		Content:   req.Content,
		Title:     req.Title,
		PosterURL: req.PosterURL,
		Sources:   result.Sources,
		Captions:  result.Captions,
		AutoPlay:  req.AutoPlay,
	}
	if req.Content.IsEpisode() && req.Content.Episode < req.EpisodeCount {
		next := req.Content.Next()
		opts.Next = &next
	}

	var session *playback.Session
	deps := c.deps
	deps.Advance = func(next models.ContentRef) {
		c.advance(session, req, next)
	}
	session = playback.NewSession(opts, deps)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeCurrentLocked()
	if err := session.Start(); err != nil {
		return nil, err
	}
	c.current = session
	if c.registry != nil {
		c.registry.Register(session)
	}
	return session, nil
}

// advance opens the next episode once the ended session has torn itself down.
// The ended session is detached first so a failed open leaves nothing active.
func (c *PlaybackController) advance(ended *playback.Session, prev OpenRequest, next models.ContentRef) {
	c.mu.Lock()
	if c.current == ended {
		c.closeCurrentLocked()
	}
	c.mu.Unlock()

	req := prev
	req.Content = next
	req.AutoPlay = true
	if _, err := c.Open(context.Background(), req); err != nil {
		c.logger.WithError(err).WithField("content_id", next.ContentID()).Error("Failed to open next episode")
	}
}

// Current returns the active session, nil when nothing plays
func (c *PlaybackController) Current() *playback.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close tears down the active session
func (c *PlaybackController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCurrentLocked()
}

func (c *PlaybackController) closeCurrentLocked() {
	if c.current == nil {
		return
	}
	if c.registry != nil {
		c.registry.Unregister(c.current)
	}
	c.current.Close()
	c.current = nil
}
