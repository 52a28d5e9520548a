package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/playback"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobPruner drops job ledger entries older than a cutoff
type JobPruner interface {
	PruneJobsBefore(cutoff time.Time) error
}

// Scheduler runs the periodic progress flush of live sessions and the ledger prune
type Scheduler struct {
	cron      *cron.Cron
	flush     time.Duration
	retention time.Duration
	pruner    JobPruner
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	mu       sync.Mutex
	sessions map[playback.Flusher]struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(flush, retention time.Duration, pruner JobPruner, m *metrics.Metrics, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		flush:     flush,
		retention: retention,
		pruner:    pruner,
		metrics:   m,
		logger:    logger,
		sessions:  make(map[playback.Flusher]struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	if s.flush > 0 {
		// Every PROGRESS_FLUSH_SECONDS: persist the position of playing sessions
		if _, err := s.cron.AddFunc("@every "+s.flush.String(), s.runFlush); err != nil {
			return fmt.Errorf("failed to add progress flush job: %w", err)
		}
	}

	if s.pruner != nil && s.retention > 0 {
		// Daily: prune the job ledger
		if _, err := s.cron.AddFunc("@daily", s.runPrune); err != nil {
			return fmt.Errorf("failed to add ledger prune job: %w", err)
		}
		go s.runPrune()
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// Register adds a session to the periodic flush
func (s *Scheduler) Register(f playback.Flusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[f] = struct{}{}
	s.metrics.SetActivePlayback(len(s.sessions))
}

// Unregister removes a session from the periodic flush
func (s *Scheduler) Unregister(f playback.Flusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, f)
	s.metrics.SetActivePlayback(len(s.sessions))
}

// Active returns the number of registered sessions
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// runFlush flushes every registered session
func (s *Scheduler) runFlush() {
	s.mu.Lock()
	sessions := make([]playback.Flusher, 0, len(s.sessions))
	for f := range s.sessions {
		sessions = append(sessions, f)
	}
	s.mu.Unlock()

	for _, f := range sessions {
		f.FlushProgress()
	}
	if len(sessions) > 0 {
		s.logger.WithField("sessions", len(sessions)).Debug("Progress flushed")
	}
}

// runPrune executes the ledger prune job
func (s *Scheduler) runPrune() {
	cutoff := time.Now().Add(-s.retention)
	s.logger.WithField("cutoff", cutoff.Format(time.RFC3339)).Debug("Pruning job ledger")

	if err := s.pruner.PruneJobsBefore(cutoff); err != nil {
		s.logger.WithError(err).Error("Ledger prune job failed")
	}
}
