package history

import (
	"encoding/json"
	"time"
)

type Record struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	ElapsedS  int64           `json:"elapsed_s"`
	Route     json.RawMessage `json:"route"`
	DistanceM float64         `json:"distance_m"`
	Steps     int             `json:"steps"`
	Litter    map[string]int  `json:"litter"`
	Points    int             `json:"points"`
}
