package routes

import (
	"strings"

	"backend/controllers"
	"backend/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Controllers bundles everything the router mounts; main wires it up.
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Inventory    *controllers.InventoryController
	Analytics    *controllers.AnalyticsController
	Risk         *controllers.RiskController
	Dashboard    *controllers.DashboardController
	Leaderboard  *controllers.LeaderboardController
	Community    *controllers.CommunityController
	Chat         *controllers.ChatController
	MealPlan     *controllers.MealPlanController
	Scan         *controllers.ScanController
	Resource     *controllers.ResourceController
	Notification *controllers.NotificationController
	Device       *controllers.DeviceController
	Realtime     *controllers.RealtimeController
}

var knownUnits = map[string]bool{
	"kilogram": true, "gram": true,
	"liter": true, "milliliter": true,
	"piece": true, "pack": true, "dozen": true,
}

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
			return knownUnits[strings.ToLower(fl.Field().String())]
		})
	}
}

func SetupRouter(ctl Controllers) *gin.Engine {
	registerValidations()

	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", ctl.Auth.Register)
		auth.POST("/login", ctl.Auth.Login)
	}

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware())
	{
		api.GET("/user/profile", ctl.User.GetProfile)
		api.PUT("/user/profile", ctl.User.UpdateProfile)

		api.GET("/inventory", ctl.Inventory.List)
		api.POST("/inventory", ctl.Inventory.Add)
		api.GET("/inventory/:id", ctl.Inventory.Get)
		api.PUT("/inventory/:id", ctl.Inventory.Update)
		api.DELETE("/inventory/:id", ctl.Inventory.Delete)
		api.POST("/inventory/:id/consume", ctl.Inventory.Consume)
		api.POST("/inventory/:id/waste", ctl.Inventory.Waste)

		api.GET("/analytics/summary", ctl.Analytics.GetSummary)
		api.POST("/risk/analyze", ctl.Risk.Analyze)
		api.GET("/dashboard/stats", ctl.Dashboard.Stats)
		api.GET("/leaderboard", ctl.Leaderboard.Get)

		api.GET("/community/listings", ctl.Community.Feed)
		api.POST("/community/listings", ctl.Community.Create)
		api.POST("/community/listings/:id/claim", ctl.Community.Claim)
		api.POST("/community/listings/:id/close", ctl.Community.Close)

		api.POST("/chat", ctl.Chat.Chat)
		api.POST("/mealplan", ctl.MealPlan.Generate)
		api.POST("/scan", ctl.Scan.Scan)
		api.GET("/catalog/search", ctl.Scan.CatalogSearch)

		api.GET("/resources", ctl.Resource.List)
		api.GET("/notifications/alerts", ctl.Notification.ListAlerts)
		api.POST("/notifications/expiry-digest", ctl.Notification.SendExpiryDigest)
		api.POST("/devices", ctl.Device.Register)
		api.GET("/ws/alerts", ctl.Realtime.AlertsWS)
	}

	return r
}
