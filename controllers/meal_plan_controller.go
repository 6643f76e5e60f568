package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type MealPlanController struct {
	Svc *services.MealPlanService
}

func NewMealPlanController(svc *services.MealPlanService) *MealPlanController {
	return &MealPlanController{Svc: svc}
}

func (h *MealPlanController) Generate(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Days int `json:"days"`
	}
	// body is optional; days defaults inside the service
	_ = c.ShouldBindJSON(&body)

	plan, err := h.Svc.Generate(c.Request.Context(), userID, body.Days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}
