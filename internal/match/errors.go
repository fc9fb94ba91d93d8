package match

import (
	"errors"
	"fmt"
)

var (
	ErrMoveInFlight      = errors.New("move request already in flight")
	ErrIllegalMove       = errors.New("agent made an illegal move")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrGameOver          = errors.New("game is over")
	ErrInvalidAgents     = errors.New("two distinct known agents are required")
	ErrDelayOutOfRange   = errors.New("move delay out of range")
	ErrClosed            = errors.New("orchestrator closed")
	ErrNoBoard           = errors.New("game service reply carried no board")
	ErrNotSynced         = errors.New("no state read from the game service yet")
)

// TransportError wraps a failed call to the game service.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("game service %s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("game service %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func transitionError(intent string, mode Mode) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, intent, mode)
}
