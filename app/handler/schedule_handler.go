package handler

import (
	"errors"
	"net/http"
	"time"

	"chainsched/internal/model"
	"chainsched/internal/scheduler"
	"chainsched/internal/service"
	"chainsched/pkg/config"
	"chainsched/pkg/logger"

	"github.com/gin-gonic/gin"
)

// taskRequest is the flat wire form of a task.
type taskRequest struct {
	ID       string  `json:"id"`
	CPU      float64 `json:"cpu"`
	Mem      float64 `json:"mem"`
	IO       float64 `json:"io"`
	BW       float64 `json:"bw"`
	Deadline int64   `json:"deadline"` // unix seconds
	Duration int64   `json:"duration"` // seconds, optional
}

func (t taskRequest) toModel() *model.Task {
	task := &model.Task{
		ID:       t.ID,
		Demand:   model.Resources{CPU: t.CPU, Mem: t.Mem, IO: t.IO, BW: t.BW},
		Duration: time.Duration(t.Duration) * time.Second,
	}
	if t.Deadline > 0 {
		task.Deadline = time.Unix(t.Deadline, 0)
	}
	return task
}

// vmState is the flat wire form of a VM snapshot. Capacity may be omitted,
// in which case the configured default applies.
type vmState struct {
	ID       int              `json:"id"`
	CPU      float64          `json:"cpu"`
	Mem      float64          `json:"mem"`
	IO       float64          `json:"io"`
	BW       float64          `json:"bw"`
	Tasks    []string         `json:"tasks"`
	Capacity *model.Resources `json:"capacity,omitempty"`
}

func (v vmState) toModel(defaultCapacity model.Resources) *model.VM {
	capacity := defaultCapacity
	if v.Capacity != nil {
		capacity = *v.Capacity
	}
	return &model.VM{
		ID:       v.ID,
		Capacity: capacity,
		Usage:    model.Resources{CPU: v.CPU, Mem: v.Mem, IO: v.IO, BW: v.BW},
		Tasks:    v.Tasks,
	}
}

type scheduleRequest struct {
	Task          taskRequest `json:"task" binding:"required"`
	SchedulerType string      `json:"scheduler_type" binding:"required"`
	VMStates      []vmState   `json:"vm_states"`
}

type scheduleResponse struct {
	Success bool     `json:"success"`
	VMID    *int     `json:"vm_id,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	TaskID  string   `json:"task_id,omitempty"`
	Message string   `json:"message,omitempty"`
}

// ScheduleHandler handles scheduling HTTP requests
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	defaultCapacity model.Resources
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService *service.ScheduleService, defaultCapacity model.Resources) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		defaultCapacity: defaultCapacity,
	}
}

// Schedule places one task on a VM under the requested policy.
// @Summary Schedule a task
// @Description Select a VM for the task under the named scheduling policy and commit its usage
// @Tags schedule
// @Accept json
// @Produce json
// @Router /v1/schedule [post]
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidates := make([]*model.VM, 0, len(req.VMStates))
	for _, state := range req.VMStates {
		candidates = append(candidates, state.toModel(h.defaultCapacity))
	}

	result, err := h.scheduleService.Schedule(c.Request.Context(), req.SchedulerType, req.Task.toModel(), candidates)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownPolicy) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("schedule failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !result.Assigned {
		c.JSON(http.StatusOK, scheduleResponse{
			Success: false,
			TaskID:  result.TaskID,
			Message: "No suitable VM found",
		})
		return
	}

	c.JSON(http.StatusOK, scheduleResponse{
		Success: true,
		VMID:    &result.VMID,
		Score:   &result.Score,
		TaskID:  result.TaskID,
	})
}

// GetConfig returns the effective capacity and scheduler tunables.
// @Summary Get scheduler configuration
// @Tags schedule
// @Produce json
// @Router /v1/config [get]
func (h *ScheduleHandler) GetConfig(c *gin.Context) {
	schedCfg := config.GlobalConfig.Scheduler
	c.JSON(http.StatusOK, gin.H{
		"vm_capacity": h.defaultCapacity,
		"scheduler": gin.H{
			"alpha":          schedCfg.Alpha,
			"beta":           schedCfg.Beta,
			"history_window": schedCfg.HistoryWindow,
			"block_size":     schedCfg.BlockSize,
		},
	})
}
