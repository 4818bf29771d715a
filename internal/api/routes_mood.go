package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/moodtracker/internal/handlers"
)

func registerMoodRoutes(api *gin.RouterGroup, moods *handlers.MoodHandler) {
	api.GET("/moods", moods.Options)

	mood := api.Group("/mood")
	{
		mood.GET("/current", moods.Current)
		mood.POST("/set", moods.Set)
		mood.GET("/history", moods.History)
	}
}
