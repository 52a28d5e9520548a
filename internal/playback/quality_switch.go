package playback

import (
	"errors"
	"fmt"

	"github.com/amaumene/reelarr/internal/metrics"
	"github.com/sirupsen/logrus"
)

// RequestQuality starts a seamless switch to the source at index.
// The visible instance keeps playing while the new source loads hidden and muted;
// roles swap once the hidden instance has settled at the same position.
// It reports whether a switch was started. Requests while a switch is in flight,
// for the current index, or outside Playing/Buffering are ignored.
func (s *Session) RequestQuality(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSessionClosed
	}
	if index < 0 || index >= len(s.opts.Sources) {
		return false, fmt.Errorf("%w: %d", ErrInvalidQuality, index)
	}
	if (s.state != StatePlaying && s.state != StateBuffering) || s.pending != nil || index == s.currentIndex {
		s.deps.Metrics.ObserveSwitch(metrics.ResultIgnored)
		return false, nil
	}

	source := s.opts.Sources[index]
	logger := s.log().WithFields(logrus.Fields{
		"from": s.opts.Sources[s.currentIndex].ResolutionP,
		"to":   source.ResolutionP,
	})

	inst, gen, err := s.newInstanceLocked()
	if err != nil {
		logger.WithError(err).Warn("Quality switch abandoned: could not create player")
		s.deps.Metrics.ObserveSwitch(metrics.ResultFailure)
		return false, nil
	}
	inst.SetMuted(true)
	inst.SetVisible(false)
	if err := inst.Load(source.URL); err != nil {
		inst.Release()
		logger.WithError(err).Warn("Quality switch abandoned: load failed")
		s.deps.Metrics.ObserveSwitch(metrics.ResultFailure)
		return false, nil
	}

	s.shadow = &slot{inst: inst, index: index, gen: gen}
	s.pending = &qualitySwitch{index: index}
	logger.Debug("Quality switch started")
	return true, nil
}

func (s *Session) handleShadowLocked(ev Event) {
	switch ev.Kind {
	case EventReady:
		if s.pending == nil || s.pending.ready {
			return
		}
		shadow := s.shadow.inst
		if err := shadow.Seek(s.primary.inst.Position()); err != nil {
			s.failSwitchLocked(fmt.Errorf("hidden seek failed: %w", err))
			return
		}
		if s.playingLocked() {
			if err := shadow.Play(); err != nil {
				s.failSwitchLocked(fmt.Errorf("hidden play failed: %w", err))
				return
			}
		}
		s.pending.ready = true
		gen := s.shadow.gen
		s.pending.settle = s.deps.Clock.AfterFunc(s.deps.Settings.SwitchSettle, func() {
			s.completeSwitch(gen)
		})

	case EventError:
		err := ev.Err
		if err == nil {
			err = errors.New("hidden player error")
		}
		s.failSwitchLocked(err)
	}
}

// completeSwitch swaps roles after the settle delay
func (s *Session) completeSwitch(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.pending == nil || s.shadow == nil || s.shadow.gen != gen {
		return
	}

	old, next := s.primary, s.shadow
	index := s.pending.index

	s.primary, s.shadow = next, nil
	next.inst.SetMuted(false)
	next.inst.SetVisible(true)

	// the hidden instance may have drifted during the settle delay
	err := next.inst.Seek(next.inst.Position())
	if err == nil && s.playingLocked() {
		err = next.inst.Play()
	}
	if err != nil {
		next.inst.Release()
		s.primary = old
		s.pending = nil
		s.log().WithError(err).Warn("Quality switch abandoned: resync failed")
		s.deps.Metrics.ObserveSwitch(metrics.ResultFailure)
		return
	}

	old.inst.Release()
	s.currentIndex = index
	s.pending = nil
	s.deps.Metrics.ObserveSwitch(metrics.ResultSuccess)
	s.log().WithField("resolution", s.opts.Sources[index].ResolutionP).Info("Quality switch completed")
}

// failSwitchLocked drops the hidden instance and leaves the visible one untouched
func (s *Session) failSwitchLocked(err error) {
	if s.pending == nil {
		return
	}
	s.discardShadowLocked()
	s.log().WithError(err).Warn("Quality switch abandoned")
	s.deps.Metrics.ObserveSwitch(metrics.ResultFailure)
}

// abortSwitchLocked ends an in-flight switch because the session itself moved on
func (s *Session) abortSwitchLocked(reason error) {
	if s.pending == nil {
		return
	}
	s.discardShadowLocked()
	s.log().WithField("reason", reason.Error()).Debug("Quality switch aborted")
}

func (s *Session) discardShadowLocked() {
	if s.pending.settle != nil {
		s.pending.settle.Stop()
	}
	if s.shadow != nil {
		s.shadow.inst.Release()
		s.shadow = nil
	}
	s.pending = nil
}

func (s *Session) shadowReadyLocked() bool {
	return s.shadow != nil && s.pending != nil && s.pending.ready
}

func (s *Session) playingLocked() bool {
	return !s.paused && (s.state == StatePlaying || s.state == StateBuffering)
}
