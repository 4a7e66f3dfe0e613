package scheduler

import (
	"math"
	"sync"
	"time"

	"chainsched/internal/ledger"
	"chainsched/internal/model"
	"chainsched/pkg/logger"

	"go.uber.org/zap"
)

// epsilon floors the dynamic weight and the time-to-deadline so neither can
// divide by zero.
const epsilon = 1e-6

// defaultDeadlineSlack substitutes for a missing task deadline.
const defaultDeadlineSlack = time.Hour

// BlockchainInspired blends current and historical utilization into a
// dynamic weight, normalizes task urgency against it, and records every
// decision in a hash-chained transaction ledger. Higher scores are better.
//
// One mutex guards the entire select-and-record sequence; history updates,
// scoring and ledger appends never interleave across callers.
type BlockchainInspired struct {
	mu      sync.Mutex
	alpha   float64
	beta    float64
	history *History
	ledger  *ledger.Ledger

	now func() time.Time
}

// NewBlockchainInspired creates the policy with its own ledger and history
// windows.
func NewBlockchainInspired(opts Options) *BlockchainInspired {
	return &BlockchainInspired{
		alpha:   opts.Alpha,
		beta:    opts.Beta,
		history: NewHistory(opts.HistoryWindow),
		ledger:  ledger.New(opts.BlockSize),
		now:     time.Now,
	}
}

func (p *BlockchainInspired) Name() PolicyName { return PolicyBlockchain }

// Ledger exposes the policy's transaction ledger for inspection.
func (p *BlockchainInspired) Ledger() *ledger.Ledger { return p.ledger }

// Schedule pushes every candidate's utilization into its history window,
// scores the admissible ones, and appends an "assigned" transaction for the
// winner or a "failed" one referencing the first candidate. The policy never
// mutates VM usage; committing is the caller's responsibility.
func (p *BlockchainInspired) Schedule(task *model.Task, candidates []*model.VM) (*model.VM, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for _, vm := range candidates {
		p.history.Push(vm.ID, vm.Utilization())
	}

	var best *model.VM
	bestScore := 0.0
	for _, vm := range candidates {
		if !p.canHandle(vm, task) {
			continue
		}
		score := p.score(vm, task, now)
		if best == nil || score > bestScore || (score == bestScore && vm.ID < best.ID) {
			best = vm
			bestScore = score
		}
	}

	if best != nil {
		before := best.Usage
		after := before.Add(task.Demand)
		txID := p.ledger.Append(best.ID, task, before, after, bestScore, ledger.StatusAssigned)
		logger.Debug("scheduling decision recorded",
			zap.String("transaction_id", txID),
			zap.String("task_id", task.ID),
			zap.Int("vm_id", best.ID),
			zap.Float64("score", bestScore),
		)
		return best, bestScore
	}

	if len(candidates) > 0 {
		// Audit trail of the rejected attempt, pinned to the first candidate.
		state := candidates[0].Usage
		p.ledger.Append(candidates[0].ID, task, state, state, 0, ledger.StatusFailed)
	}
	return nil, math.Inf(1)
}

// canHandle simulates the assignment; the VM qualifies iff every resulting
// utilization ratio stays at or below 1.0.
func (p *BlockchainInspired) canHandle(vm *model.VM, task *model.Task) bool {
	after := vm.Usage.Add(task.Demand)
	return after.CPU/vm.Capacity.CPU <= 1.0 &&
		after.Mem/vm.Capacity.Mem <= 1.0 &&
		after.IO/vm.Capacity.IO <= 1.0 &&
		after.BW/vm.Capacity.BW <= 1.0
}

func (p *BlockchainInspired) score(vm *model.VM, task *model.Task, now time.Time) float64 {
	return p.urgencyFactor(task, now) / p.dynamicWeight(vm)
}

// dynamicWeight blends current resource usage with the historical mean,
// floored at epsilon.
func (p *BlockchainInspired) dynamicWeight(vm *model.VM) float64 {
	cru := vm.LoadScore()
	hru := p.history.Mean(vm.ID)
	return math.Max(p.alpha*cru+p.beta*hru, epsilon)
}

// urgencyFactor is the inverse of the time remaining until the deadline.
func (p *BlockchainInspired) urgencyFactor(task *model.Task, now time.Time) float64 {
	deadline := task.Deadline
	if deadline.IsZero() {
		deadline = now.Add(defaultDeadlineSlack)
	}
	timeLeft := math.Max(deadline.Sub(now).Seconds(), epsilon)
	return 1.0 / timeLeft
}
