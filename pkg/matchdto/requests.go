package matchdto

import "time"

type StartRequest struct {
	Agents []string `json:"agents"`
}

type StartResponse struct {
	MatchID   string    `json:"match_id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	StartedAt time.Time `json:"started_at"`
}

type DelayRequest struct {
	Ms int64 `json:"ms"`
}

type DelayResponse struct {
	Ms    int64 `json:"ms"`
	MinMs int64 `json:"min_ms"`
	MaxMs int64 `json:"max_ms"`
}

type AgentsResponse struct {
	Agents []string `json:"agents"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Mode     string `json:"mode"`
	InFlight bool   `json:"in_flight"`
}

// MatchSummary is a finished match as stored by the audit log.
type MatchSummary struct {
	MatchID     string    `json:"match_id"`
	White       string    `json:"white"`
	Black       string    `json:"black"`
	Result      string    `json:"result"`
	Termination string    `json:"termination"`
	Plies       int       `json:"plies"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}
