package service

import (
	"context"
	"fmt"
	"sync"

	"chainsched/internal/model"
	"chainsched/internal/scheduler"
	"chainsched/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FleetStore persists VM snapshots between requests. Nil-able: without one,
// every schedule request must carry its candidate snapshots.
type FleetStore interface {
	Save(ctx context.Context, vm *model.VM) error
	Get(ctx context.Context, id int) (*model.VM, error)
	List(ctx context.Context) ([]*model.VM, error)
	Delete(ctx context.Context, id int) error
}

// ScheduleResult is the outcome of one scheduling call.
type ScheduleResult struct {
	Assigned bool
	VMID     int
	Score    float64
	TaskID   string
}

// ScheduleService resolves the requested policy, runs it, and performs the
// caller-side commit of the winner's resource usage. The mutex makes
// "load candidates, select, commit, persist" one critical section so two
// requests cannot race against the same admission result.
type ScheduleService struct {
	mu       sync.Mutex
	registry *scheduler.Registry
	fleet    FleetStore
}

// NewScheduleService creates the scheduling service. fleet may be nil.
func NewScheduleService(registry *scheduler.Registry, fleet FleetStore) *ScheduleService {
	return &ScheduleService{
		registry: registry,
		fleet:    fleet,
	}
}

// Schedule places the task under the named policy. Candidates from the
// request win over the fleet store; with neither, the policy sees an empty
// candidate set and returns its no-VM outcome.
func (s *ScheduleService) Schedule(ctx context.Context, policyName string, task *model.Task, candidates []*model.VM) (*ScheduleResult, error) {
	policy, err := s.registry.Get(scheduler.PolicyName(policyName))
	if err != nil {
		return nil, err
	}

	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(candidates) == 0 && s.fleet != nil {
		candidates, err = s.fleet.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load fleet candidates: %w", err)
		}
	}

	vm, score := policy.Schedule(task, candidates)
	if vm == nil {
		logger.Info("no feasible vm",
			zap.String("policy", policyName),
			zap.String("task_id", task.ID),
			zap.Int("candidates", len(candidates)),
		)
		return &ScheduleResult{Assigned: false, Score: score, TaskID: task.ID}, nil
	}

	// Caller-side commit: the policies only decide.
	vm.Commit(task)
	if s.fleet != nil {
		if err := s.fleet.Save(ctx, vm); err != nil {
			return nil, fmt.Errorf("failed to persist committed vm %d: %w", vm.ID, err)
		}
	}

	logger.Info("task scheduled",
		zap.String("policy", policyName),
		zap.String("task_id", task.ID),
		zap.Int("vm_id", vm.ID),
		zap.Float64("score", score),
	)
	return &ScheduleResult{Assigned: true, VMID: vm.ID, Score: score, TaskID: task.ID}, nil
}

// RegisterVMs stores fleet snapshots, filling in the default capacity for
// entries that omit one.
func (s *ScheduleService) RegisterVMs(ctx context.Context, vms []*model.VM, defaultCapacity model.Resources) error {
	if s.fleet == nil {
		return fmt.Errorf("fleet store is not configured")
	}
	for _, vm := range vms {
		if vm.Capacity == (model.Resources{}) {
			vm.Capacity = defaultCapacity
		}
		if err := s.fleet.Save(ctx, vm); err != nil {
			return err
		}
	}
	return nil
}

// ListVMs returns the stored fleet ordered by id.
func (s *ScheduleService) ListVMs(ctx context.Context) ([]*model.VM, error) {
	if s.fleet == nil {
		return []*model.VM{}, nil
	}
	return s.fleet.List(ctx)
}

// RemoveVM deletes one stored snapshot.
func (s *ScheduleService) RemoveVM(ctx context.Context, id int) error {
	if s.fleet == nil {
		return fmt.Errorf("fleet store is not configured")
	}
	return s.fleet.Delete(ctx, id)
}
