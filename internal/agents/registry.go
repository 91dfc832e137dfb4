package agents

import (
	"context"
	"slices"
	"sync"
)

// AgentRequest is everything a computation agent may read for one step.
type AgentRequest struct {
	Query       string
	Instruction string
	OutputKey   string
	Input       StepInput
	Plan        *ExecutionPlan
	// Context is the snapshot of results written before this step
	Context *ResultContext
}

// Agent is a stateless computation unit a plan step dispatches to.
// A nil result with a nil error counts as a failed step.
type Agent interface {
	Type() AgentType
	Invoke(ctx context.Context, req AgentRequest) (AgentResult, error)
}

// Registry stores agents by their type for quick lookup.
type Registry struct {
	agents map[AgentType]Agent
	mu     sync.RWMutex
}

// NewRegistry constructs a registry holding agents.
func NewRegistry(agents ...Agent) *Registry {
	r := &Registry{agents: make(map[AgentType]Agent)}
	for _, ag := range agents {
		r.Register(ag)
	}
	return r
}

// Register adds or replaces an agent entry.
func (r *Registry) Register(ag Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[ag.Type()] = ag
}

// Get retrieves an agent by type.
func (r *Registry) Get(agentType AgentType) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ag, ok := r.agents[agentType]
	return ag, ok
}

// List returns registered agent types in name order.
func (r *Registry) List() []AgentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]AgentType, 0, len(r.agents))
	for t := range r.agents {
		res = append(res, t)
	}
	slices.Sort(res)

	return res
}
