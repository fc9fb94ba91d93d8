package matchdto

// ErrorResponse is the JSON body of every failed console call.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e ErrorResponse) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "arena error"
}

const (
	CodeInvalidTransition = "invalid_transition"
	CodeGameOver          = "game_over"
	CodeInvalidAgents     = "invalid_agents"
	CodeDelayOutOfRange   = "delay_out_of_range"
	CodeMoveInFlight      = "move_in_flight"
	CodeTransport         = "transport_failure"
	CodeNotSynced         = "not_synced"
	CodeBadRequest        = "bad_request"
	CodeInternal          = "internal"
)
