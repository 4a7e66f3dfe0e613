package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"chainsched/internal/model"

	"github.com/go-redis/redis/v8"
)

// fleetKey holds the fleet snapshot as a hash of vm id -> JSON state.
const fleetKey = "chainsched:fleet"

// FleetRepository persists VM snapshots in Redis. The scheduler core never
// touches this; the service layer loads candidates from it and writes back
// committed usage.
type FleetRepository struct {
	redis *redis.Client
}

// NewFleetRepository creates a fleet repository
func NewFleetRepository(redisClient *RedisClient) *FleetRepository {
	return &FleetRepository{
		redis: redisClient.GetClient(),
	}
}

// NewFleetRepositoryFromClient wraps an existing client, used by tests.
func NewFleetRepositoryFromClient(client *redis.Client) *FleetRepository {
	return &FleetRepository{redis: client}
}

// Save writes one VM snapshot.
func (r *FleetRepository) Save(ctx context.Context, vm *model.VM) error {
	data, err := json.Marshal(vm)
	if err != nil {
		return fmt.Errorf("failed to marshal vm: %w", err)
	}
	if err := r.redis.HSet(ctx, fleetKey, strconv.Itoa(vm.ID), data).Err(); err != nil {
		return fmt.Errorf("failed to save vm %d: %w", vm.ID, err)
	}
	return nil
}

// Get retrieves one VM snapshot; (nil, nil) when the VM is unknown.
func (r *FleetRepository) Get(ctx context.Context, id int) (*model.VM, error) {
	data, err := r.redis.HGet(ctx, fleetKey, strconv.Itoa(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vm %d: %w", id, err)
	}

	var vm model.VM
	if err := json.Unmarshal([]byte(data), &vm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vm %d: %w", id, err)
	}
	return &vm, nil
}

// List returns the whole fleet ordered by VM id.
func (r *FleetRepository) List(ctx context.Context) ([]*model.VM, error) {
	entries, err := r.redis.HGetAll(ctx, fleetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list fleet: %w", err)
	}

	vms := make([]*model.VM, 0, len(entries))
	for id, data := range entries {
		var vm model.VM
		if err := json.Unmarshal([]byte(data), &vm); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vm %s: %w", id, err)
		}
		vms = append(vms, &vm)
	}

	sort.Slice(vms, func(i, j int) bool { return vms[i].ID < vms[j].ID })
	return vms, nil
}

// Delete removes one VM snapshot.
func (r *FleetRepository) Delete(ctx context.Context, id int) error {
	if err := r.redis.HDel(ctx, fleetKey, strconv.Itoa(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete vm %d: %w", id, err)
	}
	return nil
}
