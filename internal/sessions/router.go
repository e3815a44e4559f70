package sessions

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSessionRoutes(router *gin.RouterGroup, controller *Controller) {
	sessions := router.Group("/sessions")
	sessions.Use(middleware.RequireSession())
	{
		sessions.POST("/reserve", controller.Reserve)
		sessions.GET("/hold", controller.Status)
		sessions.POST("/leave", controller.Leave)
		sessions.DELETE("/hold", controller.Abandon)
	}
}
