package bookings

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller *Controller) {
	bookings := router.Group("/bookings")
	bookings.Use(middleware.RequireSession())
	{
		bookings.POST("/submit", controller.Submit)
		bookings.GET("", controller.ListBookings)
		bookings.GET("/:bookingId", controller.GetBooking)
		bookings.DELETE("/:bookingId", controller.CancelBooking)
	}
}
