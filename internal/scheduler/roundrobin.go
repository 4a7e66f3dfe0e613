package scheduler

import (
	"sync"

	"chainsched/internal/model"
)

// RoundRobin rotates a cursor over the candidate sequence and picks the
// first admissible VM. The cursor and the last-seen candidate count persist
// across calls; a changed count resets the rotation.
type RoundRobin struct {
	mu     sync.Mutex
	cursor int
	seen   int
}

// NewRoundRobin creates a round-robin policy with the cursor at zero.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

func (p *RoundRobin) Name() PolicyName { return PolicyRoundRobin }

// Schedule scans at most len(candidates) VMs starting at the cursor. On
// failure the cursor is restored to its pre-scan position so an infeasible
// task makes no rotation progress.
func (p *RoundRobin) Schedule(task *model.Task, candidates []*model.VM) (*model.VM, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(candidates)
	if n == 0 {
		return nil, 0
	}

	if p.seen != n {
		p.seen = n
		p.cursor = 0
	}

	start := p.cursor
	for i := 0; i < n; i++ {
		vm := candidates[p.cursor]
		p.cursor = (p.cursor + 1) % n
		if vm.CanAdmit(task) {
			return vm, vm.LoadScore()
		}
	}

	p.cursor = start
	return nil, 0
}
