package handler

import (
	"net/http"
	"strconv"

	"chainsched/internal/model"
	"chainsched/internal/service"
	"chainsched/pkg/logger"

	"github.com/gin-gonic/gin"
)

// FleetHandler handles VM fleet snapshot requests
type FleetHandler struct {
	scheduleService *service.ScheduleService
	defaultCapacity model.Resources
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(scheduleService *service.ScheduleService, defaultCapacity model.Resources) *FleetHandler {
	return &FleetHandler{
		scheduleService: scheduleService,
		defaultCapacity: defaultCapacity,
	}
}

type registerFleetRequest struct {
	VMs []vmState `json:"vms" binding:"required"`
}

// Register stores the given VM snapshots in the fleet store.
// @Summary Register fleet snapshots
// @Tags fleet
// @Accept json
// @Produce json
// @Router /v1/vms [put]
func (h *FleetHandler) Register(c *gin.Context) {
	var req registerFleetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vms := make([]*model.VM, 0, len(req.VMs))
	for _, state := range req.VMs {
		vms = append(vms, state.toModel(h.defaultCapacity))
	}

	if err := h.scheduleService.RegisterVMs(c.Request.Context(), vms, h.defaultCapacity); err != nil {
		logger.Errorf("failed to register vms: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": len(vms)})
}

// List returns the stored fleet ordered by VM id.
// @Summary List fleet snapshots
// @Tags fleet
// @Produce json
// @Router /v1/vms [get]
func (h *FleetHandler) List(c *gin.Context) {
	vms, err := h.scheduleService.ListVMs(c.Request.Context())
	if err != nil {
		logger.Errorf("failed to list vms: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vms": vms, "total": len(vms)})
}

// Delete removes one VM snapshot.
// @Summary Delete a fleet snapshot
// @Tags fleet
// @Produce json
// @Param id path int true "VM id"
// @Router /v1/vms/{id} [delete]
func (h *FleetHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vm id"})
		return
	}
	if err := h.scheduleService.RemoveVM(c.Request.Context(), id); err != nil {
		logger.Errorf("failed to delete vm %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
