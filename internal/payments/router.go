package payments

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPaymentRoutes(router *gin.RouterGroup, controller *Controller) {
	payments := router.Group("/payments")
	payments.Use(middleware.RequireSession())
	{
		payments.POST("/dispatch", controller.Dispatch)
		payments.GET("/return/:provider", controller.Return)
	}
}
