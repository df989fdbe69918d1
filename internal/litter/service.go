package litter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/utmgdsc/PlogGo/internal/db"
)

var ErrNoActiveSession = errors.New("no active session")

// Service records classified litter against the user's active plogging
// session while it is still running. The classification itself happens in a
// separate subsystem; this only stores the reported result. Because the
// counts land in the durable session record immediately, a session the
// sweeper later closes still credits them to the user.
type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Record(ctx context.Context, userID string, entry Entry) (SessionLitter, error) {
	if entry.Type == "" || entry.Count <= 0 {
		return SessionLitter{}, errors.New("type and a positive count required")
	}

	var sessionID string
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(active_session_id, '') FROM users WHERE id = $1
	`, userID)
	if err := row.Scan(&sessionID); err != nil {
		return SessionLitter{}, err
	}
	if sessionID == "" {
		return SessionLitter{}, ErrNoActiveSession
	}

	current, err := s.sessionLitter(ctx, sessionID)
	if err != nil {
		return SessionLitter{}, err
	}

	current.Litter[entry.Type] += entry.Count
	current.Points += entry.Points

	litterJSON, err := json.Marshal(current.Litter)
	if err != nil {
		return SessionLitter{}, err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE plogging_sessions SET litter = $2, points = $3
		WHERE session_id = $1
	`, sessionID, litterJSON, current.Points)
	if err != nil {
		return SessionLitter{}, err
	}
	return current, nil
}

func (s *Service) sessionLitter(ctx context.Context, sessionID string) (SessionLitter, error) {
	row := s.db.QueryRow(ctx, `
		SELECT session_id, COALESCE(litter, '{}'), COALESCE(points, 0)
		FROM plogging_sessions WHERE session_id = $1
	`, sessionID)

	out := SessionLitter{Litter: map[string]int{}}
	var raw []byte
	if err := row.Scan(&out.SessionID, &raw, &out.Points); err != nil {
		return SessionLitter{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Litter); err != nil {
			return SessionLitter{}, err
		}
	}
	return out, nil
}
