package history

import (
	"context"
	"encoding/json"

	"github.com/utmgdsc/PlogGo/internal/db"
)

// Service reads the durable session records the tracking engine produces.
type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]Record, error) {
	return s.query(ctx, `
		SELECT session_id, user_id, started_at, ended_at, COALESCE(elapsed_s, 0), COALESCE(route, '[]'), COALESCE(distance_m, 0), COALESCE(steps, 0), COALESCE(litter, '{}'), COALESCE(points, 0)
		FROM plogging_sessions
		WHERE user_id = $1 AND ended_at IS NOT NULL
		ORDER BY ended_at DESC
	`, userID)
}

func (s *Service) ActiveSessions(ctx context.Context, userID string) ([]Record, error) {
	return s.query(ctx, `
		SELECT session_id, user_id, started_at, ended_at, COALESCE(elapsed_s, 0), COALESCE(route, '[]'), COALESCE(distance_m, 0), COALESCE(steps, 0), COALESCE(litter, '{}'), COALESCE(points, 0)
		FROM plogging_sessions
		WHERE user_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
	`, userID)
}

func (s *Service) query(ctx context.Context, sql, userID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var route, litter []byte
		if err := rows.Scan(&rec.SessionID, &rec.UserID, &rec.StartedAt, &rec.EndedAt, &rec.ElapsedS, &route, &rec.DistanceM, &rec.Steps, &litter, &rec.Points); err != nil {
			return nil, err
		}
		rec.Route = json.RawMessage(route)
		rec.Litter = map[string]int{}
		if len(litter) > 0 {
			if err := json.Unmarshal(litter, &rec.Litter); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
