package agents

import (
	"crypto/rand"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/park285/llm-chess-arena/internal/domain"
)

// Assigner binds two agents to colours with a fair coin.
type Assigner struct {
	rand io.Reader
	now  func() time.Time
}

type AssignerOption func(*Assigner)

// WithRandom replaces crypto/rand as the coin source.
func WithRandom(r io.Reader) AssignerOption {
	return func(a *Assigner) {
		if r != nil {
			a.rand = r
		}
	}
}

func WithNow(now func() time.Time) AssignerOption {
	return func(a *Assigner) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAssigner(opts ...AssignerOption) *Assigner {
	a := &Assigner{rand: rand.Reader, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assign returns a binding where first plays White with probability 1/2.
// Inputs are validated by the caller.
func (a *Assigner) Assign(first, second domain.AgentID) domain.AgentBinding {
	white, black := first, second
	if a.flip() {
		white, black = second, first
	}
	return domain.AgentBinding{
		MatchID:   uuid.NewString(),
		White:     white,
		Black:     black,
		StartedAt: a.now(),
	}
}

func (a *Assigner) flip() bool {
	n, err := rand.Int(a.rand, big.NewInt(2))
	if err != nil {
		// exhausted test readers fall back to the system source
		n, _ = rand.Int(rand.Reader, big.NewInt(2))
	}
	return n != nil && n.Int64() == 1
}
