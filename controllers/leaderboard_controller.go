package controllers

import (
	"net/http"
	"strconv"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	Impact *services.ImpactService
}

func NewLeaderboardController(impact *services.ImpactService) *LeaderboardController {
	return &LeaderboardController{Impact: impact}
}

func (h *LeaderboardController) Get(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	top, rank, err := h.Impact.Leaderboard(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": top, "your_rank": rank})
}
