package user

type Profile struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Pfp         string   `json:"pfp"`
	Description string   `json:"description"`
	Streak      int      `json:"streak"`
	Badges      []string `json:"badges"`
}

type ProfileUpdate struct {
	Name        string `json:"name"`
	Pfp         string `json:"pfp"`
	Description string `json:"description"`
}

type Metrics struct {
	TimeS      int64   `json:"time"`
	DistanceM  float64 `json:"distance"`
	Steps      int64   `json:"steps"`
	Calories   float64 `json:"calories"`
	CurrStreak int     `json:"curr_streak"`
	Points     int64   `json:"points"`
	Litter     int64   `json:"litter"`
}

type LeaderboardEntry struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Username   string  `json:"username"`
	Points     int64   `json:"total_points"`
	DistanceM  float64 `json:"total_distance"`
	TimeS      int64   `json:"total_time"`
	ProfilePic string  `json:"profile_picture"`
}

type Challenge struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	RewardPoints int    `json:"reward_points"`
}
