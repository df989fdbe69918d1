package tracking

import (
	"context"
	"log"
	"time"
)

// DueForClosure selects the sessions the sweeper must finalize: anything
// flagged abandoned, or inactive past the threshold with no live connections.
// A user who is connected but stationary never times out.
func (s *Service) DueForClosure(now time.Time) []string {
	var due []string
	for _, sess := range s.store.Snapshot() {
		if !sess.FinishedAt.IsZero() {
			continue
		}
		if sess.Abandoned {
			due = append(due, sess.SessionID)
			continue
		}
		if s.registry.Count(sess.UserID) == 0 && now.Sub(sess.LastActivity) > s.inactivity {
			due = append(due, sess.SessionID)
		}
	}
	return due
}

// SweepOnce drives every due session to its terminal state through the same
// finalize path finish uses. Returns the number of sessions closed.
func (s *Service) SweepOnce(ctx context.Context) int {
	closed := 0
	for _, sessionID := range s.DueForClosure(s.now()) {
		if s.sweepSession(ctx, sessionID) {
			closed++
		}
	}
	return closed
}

func (s *Service) sweepSession(ctx context.Context, sessionID string) bool {
	sess, ok := s.store.Remove(sessionID)
	if !ok {
		// Lost the race to a concurrent finish.
		return false
	}

	log.Printf("sweeping abandoned session %s for user %s", sessionID, sess.UserID)

	// No client is attached, so litter and points come from whatever was
	// durably stored before the owner went away.
	litter := map[string]int{}
	points := 0
	if rec, err := s.gw.SessionRecord(ctx, sessionID); err == nil {
		litter = rec.Litter
		points = rec.Points
	} else {
		log.Printf("read session record %s: %v", sessionID, err)
	}

	litterCount := 0
	for _, n := range litter {
		litterCount += n
	}

	if _, err := s.finalize(ctx, sess, litter, litterCount, points); err != nil {
		// Best-effort, never-stuck: the memory entry is gone and finalize
		// already cleared the user's pointer, so the user can start again.
		log.Printf("finalize swept session %s: %v", sessionID, err)
	}
	return true
}

// RunSweeper runs SweepOnce on a fixed interval until the context is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepOnce(ctx); n > 0 {
				log.Printf("sweeper closed %d sessions", n)
			}
		}
	}
}
