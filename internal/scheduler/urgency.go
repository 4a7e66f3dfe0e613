package scheduler

import (
	"math"

	"chainsched/internal/model"
)

// UrgencyAware scores every admissible candidate by deadline plus a weighted
// load term and selects the minimum; lower is better. Stateless.
type UrgencyAware struct{}

// NewUrgencyAware creates an urgency-aware policy.
func NewUrgencyAware() *UrgencyAware {
	return &UrgencyAware{}
}

func (p *UrgencyAware) Name() PolicyName { return PolicyUrgency }

// Schedule returns (nil, +Inf) when no candidate is admissible. Ties break
// by ascending VM id.
func (p *UrgencyAware) Schedule(task *model.Task, candidates []*model.VM) (*model.VM, float64) {
	var best *model.VM
	bestScore := math.Inf(1)

	for _, vm := range candidates {
		if !vm.CanAdmit(task) {
			continue
		}
		score := p.score(task, vm)
		if best == nil || score < bestScore || (score == bestScore && vm.ID < best.ID) {
			best = vm
			bestScore = score
		}
	}

	if best == nil {
		return nil, math.Inf(1)
	}
	return best, bestScore
}

func (p *UrgencyAware) score(task *model.Task, vm *model.VM) float64 {
	return float64(task.Deadline.Unix()) + vm.LoadScore()*5
}
