package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/amaumene/reelarr/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingFlusher struct {
	mu      sync.Mutex
	flushes int
}

func (f *countingFlusher) FlushProgress() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

type fakePruner struct {
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) PruneJobsBefore(cutoff time.Time) error {
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.err
}

func TestRunFlushFlushesRegisteredSessions(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	s := NewScheduler(10*time.Second, 0, nil, m, utils.NewDiscardLogger())

	a, b := &countingFlusher{}, &countingFlusher{}
	s.Register(a)
	s.Register(b)
	s.Register(a)
	if got := testutil.ToFloat64(m.ActivePlayback); got != 2 {
		t.Errorf("Expected gauge 2, got %v", got)
	}

	s.runFlush()
	s.Unregister(b)
	s.runFlush()

	if a.flushes != 2 || b.flushes != 1 {
		t.Errorf("Unexpected flush counts: a=%d b=%d", a.flushes, b.flushes)
	}
	if s.Active() != 1 {
		t.Errorf("Expected 1 active session, got %d", s.Active())
	}
	if got := testutil.ToFloat64(m.ActivePlayback); got != 1 {
		t.Errorf("Expected gauge 1, got %v", got)
	}
}

func TestRunPruneUsesRetention(t *testing.T) {
	pruner := &fakePruner{}
	s := NewScheduler(0, 48*time.Hour, pruner, nil, utils.NewDiscardLogger())

	before := time.Now().Add(-48 * time.Hour)
	s.runPrune()
	after := time.Now().Add(-48 * time.Hour)

	if len(pruner.cutoffs) != 1 {
		t.Fatalf("Expected 1 prune, got %d", len(pruner.cutoffs))
	}
	if c := pruner.cutoffs[0]; c.Before(before) || c.After(after) {
		t.Errorf("Cutoff %v outside [%v, %v]", c, before, after)
	}

	pruner.err = errors.New("disk full")
	s.runPrune()
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(time.Second, 0, nil, nil, utils.NewDiscardLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
}
