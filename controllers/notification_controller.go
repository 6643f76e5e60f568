package controllers

import (
	"net/http"
	"time"

	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Alerts    *services.AlertBus
	Inventory *services.InventoryService
	Users     *services.UserService
	Mailer    *utils.Mailer // nil when SES is not configured
}

func NewNotificationController(alerts *services.AlertBus, inv *services.InventoryService, users *services.UserService, mailer *utils.Mailer) *NotificationController {
	return &NotificationController{Alerts: alerts, Inventory: inv, Users: users, Mailer: mailer}
}

func (h *NotificationController) ListAlerts(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	alerts, err := h.Alerts.RecentAlerts(userID, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// SendExpiryDigest mails the caller a list of items expiring within 3
// days. Nothing expiring means nothing sent.
func (h *NotificationController) SendExpiryDigest(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.Mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email is not configured"})
		return
	}
	ctx := c.Request.Context()

	user, err := h.Users.Get(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	items, err := h.Inventory.ExpiringWithin(ctx, userID, 3)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusOK, gin.H{"sent": false, "message": "nothing expiring soon"})
		return
	}

	now := time.Now()
	digest := make([]utils.ExpiringItem, 0, len(items))
	for _, it := range items {
		digest = append(digest, utils.ExpiringItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit,
			DaysLeft: int(it.ExpirationDate.Sub(now).Hours() / 24),
		})
	}

	if err := h.Mailer.SendExpiryDigest(ctx, user.Email, digest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true, "items": len(digest)})
}
