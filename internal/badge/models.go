package badge

import "time"

// Badge is a step-threshold achievement; the finalize path awards every badge
// whose threshold a session's accumulated steps reached.
type Badge struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	StepsRequired int       `json:"steps_required"`
	CreatedAt     time.Time `json:"created_at"`
}
