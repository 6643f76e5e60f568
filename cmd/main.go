package main

import (
	"context"
	"os"

	"backend/config"
	"backend/controllers"
	"backend/routes"
	"backend/services"
	"backend/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	db, err := config.InitDB()
	if err != nil {
		logrus.WithError(err).Fatal("database init failed")
	}

	ctx := context.Background()

	// AWS-backed pieces are optional: missing credentials degrade those
	// features instead of refusing to boot.
	var mailer *utils.Mailer
	if m, err := utils.NewMailer(ctx); err != nil {
		logrus.WithError(err).Warn("SES mailer disabled")
	} else {
		mailer = m
	}
	var images *utils.ImageStore
	if s, err := utils.NewImageStore(ctx); err != nil {
		logrus.WithError(err).Warn("S3 image store disabled")
	} else {
		images = s
	}
	var push *services.PushService
	if p, err := services.NewPushService(db); err != nil {
		logrus.WithError(err).Warn("SNS push disabled")
	} else {
		push = p
	}

	gateway := services.NewGeminiService()
	if !gateway.Enabled() {
		logrus.Warn("GEMINI_API_KEY not set; AI features run on fallbacks")
	}

	hub := services.NewRealtimeHub()
	alerts := services.NewAlertBus(db, hub, push)

	logs := services.NewActionLogService(db)
	inventory := services.NewInventoryService(db)
	analytics := services.NewAnalyticsService(db, logs, gateway)
	risk := services.NewRiskService(db, gateway, alerts)
	impact := services.NewImpactService(db, logs)
	scan, err := services.NewScanService(db, gateway)
	if err != nil {
		logrus.WithError(err).Fatal("scan service init failed")
	}

	ctl := routes.Controllers{
		Auth:         controllers.NewAuthController(services.NewAuthService(db)),
		User:         controllers.NewUserController(services.NewUserService(db)),
		Inventory:    controllers.NewInventoryController(inventory),
		Analytics:    controllers.NewAnalyticsController(analytics),
		Risk:         controllers.NewRiskController(risk),
		Dashboard:    controllers.NewDashboardController(impact, inventory, logs),
		Leaderboard:  controllers.NewLeaderboardController(impact),
		Community:    controllers.NewCommunityController(services.NewCommunityService(db, images)),
		Chat:         controllers.NewChatController(services.NewChatService(db, gateway)),
		MealPlan:     controllers.NewMealPlanController(services.NewMealPlanService(db, gateway)),
		Scan:         controllers.NewScanController(scan),
		Resource:     controllers.NewResourceController(services.NewResourceService(db)),
		Notification: controllers.NewNotificationController(alerts, inventory, services.NewUserService(db), mailer),
		Device:       controllers.NewDeviceController(push),
		Realtime:     controllers.NewRealtimeController(hub),
	}

	r := routes.SetupRouter(ctl)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
