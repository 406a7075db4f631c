package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"WakeOrPay/internal/handler"
	"WakeOrPay/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	auth := v1.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware())
	{
		auth.POST("/token", handler.IssueToken)
		auth.POST("/token/refresh", handler.RefreshToken)
	}

	alarms := v1.Group("/alarms")
	alarms.Use(middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware())
	{
		alarms.GET("", handler.ListAlarms)
		alarms.POST("", handler.CreateAlarm)
		alarms.GET("/:alarm_id", handler.GetAlarm)
		alarms.PATCH("/:alarm_id", handler.UpdateAlarm)
		alarms.DELETE("/:alarm_id", handler.DeactivateAlarm)
	}

	wakeups := v1.Group("/wakeups")
	wakeups.Use(middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware())
	{
		wakeups.POST("/verify", middleware.VerifyRateLimitMiddleware(), handler.VerifyWakeUp)
		wakeups.GET("/today", handler.GetTodayStatus)
		wakeups.GET("/history", handler.GetWakeHistory)
	}

	payments := v1.Group("/payments")
	{
		// processor callback, authenticated by its signature header
		payments.POST("/webhook", handler.StripeWebhook)

		authed := payments.Group("", middleware.AuthMiddleware(), middleware.GeneralRateLimitMiddleware())
		authed.POST("/setup-intent", handler.CreateSetupIntent)
		authed.GET("/transactions", handler.ListTransactions)
	}

	// internal scheduler surface, shared-secret only
	scheduler := v1.Group("/scheduler")
	scheduler.Use(middleware.SchedulerAuthMiddleware())
	{
		scheduler.POST("/sweep", handler.TriggerSweep)
		scheduler.GET("/sweep", handler.GetSweepStatus)
	}
}
