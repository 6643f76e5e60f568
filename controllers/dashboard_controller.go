package controllers

import (
	"net/http"
	"time"

	"backend/models"
	"backend/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Impact    *services.ImpactService
	Inventory *services.InventoryService
	Logs      *services.ActionLogService
}

func NewDashboardController(impact *services.ImpactService, inv *services.InventoryService, logs *services.ActionLogService) *DashboardController {
	return &DashboardController{Impact: impact, Inventory: inv, Logs: logs}
}

// Stats is the dashboard header: item counts, streak and the impact
// score. Reading it recomputes and persists the score from the full log —
// the score is derived state, the ledger is the authority.
func (h *DashboardController) Stats(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	score, err := h.Impact.Recompute(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	streak, err := h.Impact.Streak(ctx, userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	active, err := h.Inventory.List(ctx, userID, models.StatusActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	expiring, err := h.Inventory.ExpiringWithin(ctx, userID, 3)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recent, err := h.Logs.Recent(ctx, userID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"impact_score":    score,
		"streak_days":     streak,
		"active_items":    len(active),
		"expiring_soon":   len(expiring),
		"recent_activity": recent,
	})
}
