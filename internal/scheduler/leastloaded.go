package scheduler

import (
	"math"

	"chainsched/internal/model"
)

// LeastLoaded prefers an idle admissible VM, falling back to the admissible
// VM with the lowest load score. Stateless.
type LeastLoaded struct{}

// NewLeastLoaded creates a least-loaded policy.
func NewLeastLoaded() *LeastLoaded {
	return &LeastLoaded{}
}

func (p *LeastLoaded) Name() PolicyName { return PolicyLeastLoaded }

// Schedule takes the first idle admissible VM in input order with score 0;
// otherwise the strictly minimal load score wins, first encountered on ties.
// Returns (nil, +Inf) when nothing is admissible.
func (p *LeastLoaded) Schedule(task *model.Task, candidates []*model.VM) (*model.VM, float64) {
	for _, vm := range candidates {
		if vm.CanAdmit(task) && vm.LoadScore() == 0 {
			return vm, 0
		}
	}

	var best *model.VM
	minLoad := math.Inf(1)
	for _, vm := range candidates {
		if !vm.CanAdmit(task) {
			continue
		}
		if load := vm.LoadScore(); load < minLoad {
			minLoad = load
			best = vm
		}
	}

	if best == nil {
		return nil, math.Inf(1)
	}
	return best, minLoad
}
