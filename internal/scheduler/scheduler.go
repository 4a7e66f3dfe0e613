// Package scheduler implements the scheduling-policy bank: four fixed
// policies behind one contract, resolved through a registry that keeps one
// persistent instance per policy so cursor, history and ledger state survive
// across calls.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"chainsched/internal/model"
)

// PolicyName identifies one of the fixed policy variants.
type PolicyName string

const (
	PolicyRoundRobin  PolicyName = "roundrobin"
	PolicyUrgency     PolicyName = "urgency"
	PolicyLeastLoaded PolicyName = "leastloaded"
	PolicyBlockchain  PolicyName = "blockchain"
)

// ErrUnknownPolicy is returned when the registry is asked for a name outside
// the fixed variant set.
var ErrUnknownPolicy = errors.New("unknown scheduling policy")

// Policy maps (task, candidates) to a selected VM and a score. A nil VM is
// the normal "no feasible candidate" outcome, never an error. Score
// interpretation is policy-specific: lower is better for urgency/leastloaded,
// higher is better for blockchain.
type Policy interface {
	Name() PolicyName
	Schedule(task *model.Task, candidates []*model.VM) (*model.VM, float64)
}

// Options are the blockchain-policy tunables.
type Options struct {
	Alpha         float64
	Beta          float64
	HistoryWindow int
	BlockSize     int
}

// DefaultOptions returns the tunables the original system ships with.
func DefaultOptions() Options {
	return Options{
		Alpha:         0.7,
		Beta:          0.3,
		HistoryWindow: 10,
		BlockSize:     5,
	}
}

// Registry resolves a policy name to exactly one lazily constructed
// instance. Construction is guarded so concurrent first lookups cannot
// produce two instances of the same policy.
type Registry struct {
	mu        sync.Mutex
	opts      Options
	instances map[PolicyName]Policy
}

// NewRegistry creates a registry; the options apply to the blockchain policy.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:      opts,
		instances: make(map[PolicyName]Policy),
	}
}

// Get returns the shared instance for name, constructing it on first use.
func (r *Registry) Get(name PolicyName) (Policy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[name]; ok {
		return p, nil
	}

	var p Policy
	switch name {
	case PolicyRoundRobin:
		p = NewRoundRobin()
	case PolicyUrgency:
		p = NewUrgencyAware()
	case PolicyLeastLoaded:
		p = NewLeastLoaded()
	case PolicyBlockchain:
		p = NewBlockchainInspired(r.opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}

	r.instances[name] = p
	return p, nil
}
