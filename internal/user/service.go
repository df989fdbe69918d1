package user

import (
	"context"
	"errors"

	"github.com/utmgdsc/PlogGo/internal/db"
)

var allowedMetrics = map[string]string{
	"total_points":   "total_points",
	"total_steps":    "total_steps",
	"total_distance": "total_distance_m",
	"total_time":     "total_time_s",
	"total_litters":  "total_litters",
}

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COALESCE(name, ''), email, COALESCE(pfp, ''), COALESCE(description, ''), streak
		FROM users WHERE id = $1
	`, userID)

	var p Profile
	if err := row.Scan(&p.Name, &p.Email, &p.Pfp, &p.Description, &p.Streak); err != nil {
		return Profile{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT b.name
		FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY b.steps_required
	`, userID)
	if err != nil {
		return Profile{}, err
	}
	defer rows.Close()

	p.Badges = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Profile{}, err
		}
		p.Badges = append(p.Badges, name)
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (Profile, error) {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			pfp = COALESCE(NULLIF($3, ''), pfp),
			description = COALESCE(NULLIF($4, ''), description),
			updated_at = NOW()
		WHERE id = $1
	`, userID, update.Name, update.Pfp, update.Description)
	if err != nil {
		return Profile{}, err
	}
	return s.Profile(ctx, userID)
}

func (s *Service) Metrics(ctx context.Context, userID string) (Metrics, error) {
	row := s.db.QueryRow(ctx, `
		SELECT total_time_s, total_distance_m, total_steps, streak, total_points, total_litters
		FROM users WHERE id = $1
	`, userID)

	var m Metrics
	if err := row.Scan(&m.TimeS, &m.DistanceM, &m.Steps, &m.CurrStreak, &m.Points, &m.Litter); err != nil {
		return Metrics{}, err
	}
	m.Calories = float64(m.Steps) * 0.04
	return m, nil
}

func (s *Service) Leaderboard(ctx context.Context, metric string, count int) ([]LeaderboardEntry, error) {
	column, ok := allowedMetrics[metric]
	if !ok {
		return nil, errors.New("invalid metric parameter")
	}
	if count <= 0 {
		count = 10
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(name, ''), email, username, total_points, total_distance_m, total_time_s, COALESCE(pfp, '')
		FROM users
		ORDER BY `+column+` DESC
		LIMIT $1
	`, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaderboard []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Email, &e.Username, &e.Points, &e.DistanceM, &e.TimeS, &e.ProfilePic); err != nil {
			return nil, err
		}
		leaderboard = append(leaderboard, e)
	}
	return leaderboard, nil
}

func (s *Service) DailyChallenge(ctx context.Context) (Challenge, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, description, reward_points
		FROM challenges
		ORDER BY random()
		LIMIT 1
	`)

	var ch Challenge
	if err := row.Scan(&ch.ID, &ch.Description, &ch.RewardPoints); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}
