package litter

type Entry struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Points int    `json:"points"`
}

type SessionLitter struct {
	SessionID string         `json:"session_id"`
	Litter    map[string]int `json:"litter"`
	Points    int            `json:"points"`
}
