package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/utmgdsc/PlogGo/internal/db"
)

// Gateway is the durable store consumed by the session lifecycle. The pgx
// implementation below is the production one; tests back it with pgxmock.
type Gateway interface {
	GetUser(ctx context.Context, userID string) (User, error)
	// ClaimActiveSession conditionally sets the user's active session pointer
	// and returns the winning session id: the candidate if the pointer was
	// empty, otherwise the already-active id.
	ClaimActiveSession(ctx context.Context, userID, candidateID string) (string, error)
	// ClearActiveSession resets the pointer only if it still references
	// sessionID, so a newer session's pointer is never clobbered.
	ClearActiveSession(ctx context.Context, userID, sessionID string) error
	UpsertSessionStub(ctx context.Context, sessionID, userID string, startedAt time.Time) error
	UpsertSessionFinal(ctx context.Context, rec FinalRecord) error
	SessionRecord(ctx context.Context, sessionID string) (SessionRecord, error)
	IncrementUserTotals(ctx context.Context, userID string, totals Totals) error
}

type PGGateway struct {
	db db.Querier
}

func NewGateway(q db.Querier) *PGGateway {
	return &PGGateway{db: q}
}

func (g *PGGateway) GetUser(ctx context.Context, userID string) (User, error) {
	row := g.db.QueryRow(ctx, `
		SELECT id, COALESCE(active_session_id, ''), COALESCE(collected_litters, '{}')
		FROM users WHERE id = $1
	`, userID)

	var u User
	var litters []byte
	if err := row.Scan(&u.ID, &u.ActiveSessionID, &litters); err != nil {
		return User{}, err
	}
	u.CollectedLitters = map[string]int{}
	if len(litters) > 0 {
		if err := json.Unmarshal(litters, &u.CollectedLitters); err != nil {
			return User{}, err
		}
	}
	return u, nil
}

func (g *PGGateway) ClaimActiveSession(ctx context.Context, userID, candidateID string) (string, error) {
	row := g.db.QueryRow(ctx, `
		UPDATE users SET active_session_id = COALESCE(active_session_id, $2)
		WHERE id = $1
		RETURNING active_session_id
	`, userID, candidateID)

	var winner string
	if err := row.Scan(&winner); err != nil {
		return "", err
	}
	return winner, nil
}

func (g *PGGateway) ClearActiveSession(ctx context.Context, userID, sessionID string) error {
	_, err := g.db.Exec(ctx, `
		UPDATE users SET active_session_id = NULL
		WHERE id = $1 AND active_session_id = $2
	`, userID, sessionID)
	return err
}

func (g *PGGateway) UpsertSessionStub(ctx context.Context, sessionID, userID string, startedAt time.Time) error {
	_, err := g.db.Exec(ctx, `
		INSERT INTO plogging_sessions (session_id, user_id, started_at, route, distance_m, steps, litter, points)
		VALUES ($1, $2, $3, '[]', 0, 0, '{}', 0)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, userID, startedAt)
	return err
}

func (g *PGGateway) UpsertSessionFinal(ctx context.Context, rec FinalRecord) error {
	route, err := json.Marshal(rec.Route)
	if err != nil {
		return err
	}
	litter, err := json.Marshal(nonNilLitter(rec.Litter))
	if err != nil {
		return err
	}

	_, err = g.db.Exec(ctx, `
		INSERT INTO plogging_sessions (session_id, user_id, started_at, ended_at, elapsed_s, route, distance_m, steps, litter, points)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (session_id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			elapsed_s = EXCLUDED.elapsed_s,
			route = EXCLUDED.route,
			distance_m = EXCLUDED.distance_m,
			steps = EXCLUDED.steps,
			litter = EXCLUDED.litter,
			points = EXCLUDED.points
	`, rec.SessionID, rec.UserID, rec.StartedAt, rec.EndedAt, rec.ElapsedS, route, rec.DistanceM, rec.Steps, litter, rec.Points)
	return err
}

func (g *PGGateway) SessionRecord(ctx context.Context, sessionID string) (SessionRecord, error) {
	row := g.db.QueryRow(ctx, `
		SELECT session_id, user_id, COALESCE(litter, '{}'), COALESCE(points, 0)
		FROM plogging_sessions WHERE session_id = $1
	`, sessionID)

	var rec SessionRecord
	var litter []byte
	if err := row.Scan(&rec.SessionID, &rec.UserID, &litter, &rec.Points); err != nil {
		return SessionRecord{}, err
	}
	rec.Litter = map[string]int{}
	if len(litter) > 0 {
		if err := json.Unmarshal(litter, &rec.Litter); err != nil {
			return SessionRecord{}, err
		}
	}
	return rec, nil
}

func (g *PGGateway) IncrementUserTotals(ctx context.Context, userID string, totals Totals) error {
	litter, err := json.Marshal(nonNilLitter(totals.Litter))
	if err != nil {
		return err
	}

	_, err = g.db.Exec(ctx, `
		UPDATE users SET
			total_steps = total_steps + $2,
			total_distance_m = total_distance_m + $3,
			total_time_s = total_time_s + $4,
			total_points = total_points + $5,
			total_litters = total_litters + $6,
			collected_litters = $7
		WHERE id = $1
	`, userID, totals.Steps, totals.DistanceM, totals.Seconds, totals.Points, totals.LitterCount, litter)
	return err
}

func nonNilLitter(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
