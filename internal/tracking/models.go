package tracking

import "time"

type GeoPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the ephemeral in-memory record of a plogging session. It exists
// only while the session is live; finalize removes it from the store.
type Session struct {
	SessionID    string     `json:"session_id"`
	UserID       string     `json:"user_id"`
	Route        []GeoPoint `json:"route"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at,omitempty"`
	DistanceM    float64    `json:"distance_m"`
	Steps        int        `json:"steps"`
	Abandoned    bool       `json:"abandoned"`
	LastActivity time.Time  `json:"last_activity"`
}

// Metrics are the client-reported litter and point numbers attached to a
// finish_tracking event. The litter classifier lives outside this service, so
// these values are trusted as reported.
type Metrics struct {
	Points        int            `json:"points"`
	Litters       int            `json:"litters"`
	LitterDetails map[string]int `json:"litterDetails,omitempty"`
}

// Summary is the tracking_completed payload sent back to the client.
type Summary struct {
	Message    string  `json:"message"`
	DurationS  int64   `json:"duration"`
	DistanceKm float64 `json:"distance"`
	Steps      int     `json:"steps"`
	Litters    int     `json:"litters"`
	Points     int     `json:"points"`
	SessionID  string  `json:"session_id"`
}

// User is the slice of the durable user aggregate the lifecycle needs.
type User struct {
	ID               string
	ActiveSessionID  string
	CollectedLitters map[string]int
}

// SessionRecord mirrors the durable plogging session row. The sweeper reads
// it to recover litter and points stored before the owner disconnected.
type SessionRecord struct {
	SessionID string
	UserID    string
	Litter    map[string]int
	Points    int
}

// FinalRecord is everything the finalize path persists for a session.
type FinalRecord struct {
	SessionID string
	UserID    string
	StartedAt time.Time
	EndedAt   time.Time
	ElapsedS  int64
	Route     []GeoPoint
	DistanceM float64
	Steps     int
	Litter    map[string]int
	Points    int
}

// Totals is the additive increment applied to the user aggregate when a
// session closes. Litter carries the fully merged collection map since the
// aggregate stores it as a single document.
type Totals struct {
	Steps       int
	DistanceM   float64
	Seconds     int64
	Points      int
	LitterCount int
	Litter      map[string]int
}
