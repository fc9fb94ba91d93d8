package agents

import (
	"sort"
	"strings"

	"github.com/park285/llm-chess-arena/internal/domain"
)

// DefaultAgents is the built-in catalogue offered in agent selection.
var DefaultAgents = []domain.AgentID{
	"qwen/qwen3-32b",
	"openai/gpt-oss-120b",
	"llama-3.3-70b-versatile",
	"llama-3.1-8b-instant",
	"groq/compound",
	"OPENAI",
	"CLAUDE",
}

// Registry is a static, ordered list of selectable agent ids.
type Registry struct {
	ids   []domain.AgentID
	index map[domain.AgentID]struct{}
}

// NewRegistry returns the default catalogue followed by any extra ids.
// Blank and duplicate ids are dropped.
func NewRegistry(extra ...string) *Registry {
	r := &Registry{index: make(map[domain.AgentID]struct{})}
	for _, id := range DefaultAgents {
		r.add(string(id))
	}
	for _, id := range extra {
		r.add(id)
	}
	return r
}

func (r *Registry) add(raw string) {
	id := domain.AgentID(strings.TrimSpace(raw))
	if id == "" {
		return
	}
	if _, ok := r.index[id]; ok {
		return
	}
	r.index[id] = struct{}{}
	r.ids = append(r.ids, id)
}

// List returns a copy of the catalogue in registration order.
func (r *Registry) List() []domain.AgentID {
	return append([]domain.AgentID(nil), r.ids...)
}

func (r *Registry) Contains(id domain.AgentID) bool {
	_, ok := r.index[id]
	return ok
}

// Sorted is used by the CLI listing.
func (r *Registry) Sorted() []string {
	out := make([]string, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}
