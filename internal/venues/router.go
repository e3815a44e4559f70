package venues

import (
	"courtside/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupVenueRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse venues and slot availability
	publicVenues := router.Group("/venues")
	{
		publicVenues.GET("", controller.ListVenues)
		publicVenues.GET("/:venueId", controller.GetVenue)
	}

	publicCourts := router.Group("/courts")
	{
		publicCourts.GET("/:courtId/slots", controller.GetCourtSlots)
	}

	// Admin routes - venue and court management
	adminVenues := router.Group("/admin/venues")
	adminVenues.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminVenues.POST("", controller.CreateVenue)
		adminVenues.PUT("/:venueId", controller.UpdateVenue)
		adminVenues.POST("/:venueId/courts", controller.CreateCourt)
	}
}
