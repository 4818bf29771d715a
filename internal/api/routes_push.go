package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/handlers"
)

func registerPushRoutes(api *gin.RouterGroup, push *handlers.PushHandler, reports *handlers.ReportHandler) {
	api.GET("/vapid-public-key", push.PublicKey)
	api.POST("/subscribe", push.Subscribe)
	api.POST("/unsubscribe", push.Unsubscribe)
	api.POST("/send-test-notification", push.SendTest)

	api.GET("/notifications/reports", reports.List)
}
