package controllers

import (
	"net/http"
	"time"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type RiskController struct {
	Svc *services.RiskService
}

func NewRiskController(svc *services.RiskService) *RiskController {
	return &RiskController{Svc: svc}
}

// Analyze re-scores up to 20 stale items. Safe to call repeatedly: fresh
// items are skipped, so a second call right after is a no-op.
func (h *RiskController) Analyze(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	updated, err := h.Svc.AnalyzeInventory(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if updated == 0 {
		c.JSON(http.StatusOK, gin.H{"updated": 0, "message": "no update needed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
