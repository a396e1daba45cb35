// Package agent holds the capability handlers the router dispatches to.
// Each agent scores incoming messages against its own intent vocabulary and
// processes the ones it wins.
package agent

import (
	"strings"

	"agentrag/internal/port"
)

// Registry keeps agents in static priority order; iteration order is the
// tie-break of last resort during routing.
type Registry struct {
	agents []port.Agent
	byName map[string]port.Agent
}

func NewRegistry(agents ...port.Agent) *Registry {
	r := &Registry{byName: make(map[string]port.Agent, len(agents))}
	for _, a := range agents {
		r.agents = append(r.agents, a)
		r.byName[a.Name()] = a
	}
	return r
}

// All returns agents in priority order.
func (r *Registry) All() []port.Agent { return r.agents }

func (r *Registry) Get(name string) (port.Agent, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// keywordConfidence implements the shared intent-vocabulary scoring: any
// high-signal phrase scores 0.9, any medium phrase 0.6, otherwise the floor.
func keywordConfidence(message string, high, medium []string, floor float64) float64 {
	lower := strings.ToLower(message)

	for _, kw := range high {
		if strings.Contains(lower, kw) {
			return 0.9
		}
	}
	for _, kw := range medium {
		if strings.Contains(lower, kw) {
			return 0.6
		}
	}
	return floor
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
