package handler

import (
	"errors"
	"net/http"
	"strconv"

	"chainsched/internal/scheduler"
	"chainsched/internal/service"
	"chainsched/pkg/logger"

	"github.com/gin-gonic/gin"
)

const defaultRecentLimit = 20

// LedgerHandler handles transaction-ledger inspection requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (h *LedgerHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrUnknownPolicy):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoLedger):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("ledger request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GetLedger returns summary, recent transactions, per-VM stats and the full
// export for the policy's ledger.
// @Summary Get ledger overview
// @Tags ledger
// @Produce json
// @Param scheduler path string true "Policy name"
// @Router /v1/ledger/{scheduler} [get]
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	overview, err := h.ledgerService.Overview(c.Param("scheduler"), defaultRecentLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Verify checks chain integrity; an integrity violation returns 409.
// @Summary Verify ledger chain integrity
// @Tags ledger
// @Produce json
// @Param scheduler path string true "Policy name"
// @Router /v1/ledger/{scheduler}/verify [get]
func (h *LedgerHandler) Verify(c *gin.Context) {
	if err := h.ledgerService.Verify(c.Param("scheduler")); err != nil {
		if errors.Is(err, service.ErrIntegrityViolation) {
			c.JSON(http.StatusConflict, gin.H{"chain_integrity": false, "error": err.Error()})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chain_integrity": true})
}

// Mine force-mines the pending transactions into a block.
// @Summary Force-mine pending transactions
// @Tags ledger
// @Produce json
// @Param scheduler path string true "Policy name"
// @Router /v1/ledger/{scheduler}/mine [post]
func (h *LedgerHandler) Mine(c *gin.Context) {
	name := c.Param("scheduler")
	if err := h.ledgerService.ForceMine(name); err != nil {
		h.respondError(c, err)
		return
	}

	overview, err := h.ledgerService.Overview(name, defaultRecentLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview.Summary)
}

// History returns transactions, optionally filtered by vm_id and task_id.
// @Summary Get transaction history
// @Tags ledger
// @Produce json
// @Param scheduler path string true "Policy name"
// @Param vm_id query int false "Filter by VM id"
// @Param task_id query string false "Filter by task id"
// @Router /v1/ledger/{scheduler}/history [get]
func (h *LedgerHandler) History(c *gin.Context) {
	vmID := -1
	if raw := c.Query("vm_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vm_id"})
			return
		}
		vmID = parsed
	}

	txs, err := h.ledgerService.History(c.Param("scheduler"), vmID, c.Query("task_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "total": len(txs)})
}
