package session

import (
	"sync"
	"time"
)

// RenewalScheduler owns the single renewal timer of the process. Scheduling a new
// renewal cancels the previous one under the same lock, so at most one timer is
// ever armed. A callback that was already firing when it got superseded sees a
// stale generation and does nothing.
type RenewalScheduler struct {
	mu         sync.Mutex
	clock      Clock
	lead       time.Duration // provider renewal offset + skew
	timer      Timer
	dueAt      time.Time
	generation uint64
}

// NewRenewalScheduler creates a scheduler that fires lead before each expiry.
func NewRenewalScheduler(clock Clock, lead time.Duration) *RenewalScheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &RenewalScheduler{
		clock: clock,
		lead:  lead,
	}
}

// Schedule cancels any pending renewal and arms a new one at expiry-lead.
// No timer is armed when expiry is zero or expiry-lead is already in the past;
// it reports whether a timer was armed.
func (s *RenewalScheduler) Schedule(expiry time.Time, fire func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	if expiry.IsZero() {
		return false
	}

	now := s.clock.Now()
	delay := expiry.Sub(now) - s.lead
	if delay < 0 {
		return false
	}

	s.generation++
	gen := s.generation
	s.dueAt = now.Add(delay)
	s.timer = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.dueAt = time.Time{}
		s.mu.Unlock()

		fire()
	})
	return true
}

// Cancel stops the pending renewal, if any.
func (s *RenewalScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Pending returns when the armed renewal is due.
func (s *RenewalScheduler) Pending() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueAt, s.timer != nil
}

func (s *RenewalScheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dueAt = time.Time{}
	s.generation++
}
