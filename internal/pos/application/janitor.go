package application

import (
	"context"
	"time"

	"github.com/dmehra2102/restaurant-pos/internal/pos/domain"
)

// RunJanitor evicts idle sessions until ctx is done. Sessions in the
// middle of a submission are never evicted.
func (s *SessionService) RunJanitor(ctx context.Context, every time.Duration) error {
	if s.cfg.IdleTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info("idle sessions evicted", "count", n)
			}
		}
	}
}

// Sweep removes sessions idle for longer than the configured TTL and
// returns how many were removed.
func (s *SessionService) Sweep() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var evicted int
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastUsed.Before(cutoff) && sess.composer.State() != domain.StateSubmitting
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if evicted > 0 {
		s.metrics.SessionsOpen(n)
	}
	return evicted
}
