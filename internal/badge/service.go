package badge

import (
	"context"

	"github.com/utmgdsc/PlogGo/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Catalog(ctx context.Context) ([]Badge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), steps_required, created_at
		FROM badges
		ORDER BY steps_required
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.StepsRequired, &b.CreatedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, nil
}

func (s *Service) UserBadges(ctx context.Context, userID string) ([]Badge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.name, COALESCE(b.description, ''), b.steps_required, b.created_at
		FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY b.steps_required
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.StepsRequired, &b.CreatedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, nil
}

// AwardForSteps grants every badge whose step threshold the session reached.
// Re-awarding an already-held badge is a no-op, so the call is idempotent and
// safe from the finalize path.
func (s *Service) AwardForSteps(ctx context.Context, userID string, steps int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id)
		SELECT $1, id FROM badges WHERE steps_required <= $2
		ON CONFLICT DO NOTHING
	`, userID, steps)
	return err
}
