// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"courtside/internal/auth"
	"courtside/internal/bookings"
	"courtside/internal/holds"
	"courtside/internal/payments"
	"courtside/internal/payments/providers"
	"courtside/internal/sessions"
	"courtside/internal/shared/config"
	"courtside/internal/shared/database"
	"courtside/internal/venues"
	"courtside/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher bookings.EventPublisher

	// Shared between route groups for dependency injection
	cacheService   cache.Service
	holdService    holds.Service
	guard          *sessions.Guard
	bookingService bookings.Service
}

// NewRouter creates a new router instance. The publisher may be nil when
// notifications are disabled.
func NewRouter(cfg *config.Config, db *database.DB, publisher bookings.EventPublisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		// Holds must come first: venues and sessions both depend on them
		r.setupHoldDependencies()
		r.setupVenueRoutes(api)
		r.setupSessionRoutes(api)
		r.setupBookingRoutes(api)
		r.setupPaymentRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "courtside-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "courtside-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupHoldDependencies builds the hold service shared by the venue,
// session and booking route groups.
func (r *Router) setupHoldDependencies() {
	redisClient := r.db.GetRedisClient()
	r.cacheService = cache.NewService(redisClient)

	holdRepo := holds.NewRepository(redisClient, r.cacheService)
	atomics := holds.NewAtomicRedisOperations(redisClient)
	r.holdService = holds.NewService(holdRepo, atomics, holds.NewWatcherRegistry(), r.config)

	if expiry, ok := r.publisher.(holds.ExpiryPublisher); ok {
		r.holdService.SetPublisher(expiry)
	}

	r.guard = sessions.NewGuard(r.holdService, r.config.Session.VisibilityGrace)
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController, r.config)

	authRouter.SetupRoutes(rg)
}

// setupVenueRoutes configures venue browsing and admin management routes
func (r *Router) setupVenueRoutes(rg *gin.RouterGroup) {
	venueRepo := venues.NewRepository(r.db.GetPostgreSQL())
	venueService := venues.NewService(venueRepo)
	venueService.SetCacheService(r.cacheService)

	// Held slots come from Redis, layered over booked slots at read time
	venueService.SetHeldSlotSource(r.holdService)

	venues.SetupVenueRoutes(rg, venues.NewController(venueService))
}

// setupSessionRoutes configures the reservation session routes
func (r *Router) setupSessionRoutes(rg *gin.RouterGroup) {
	sessionService := sessions.NewService(r.holdService, r.guard)
	sessions.SetupSessionRoutes(rg, sessions.NewController(sessionService))
}

// setupBookingRoutes configures booking submission and management routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL(), r.cacheService)
	r.bookingService = bookings.NewService(bookingRepo, r.holdService, r.config)
	if r.publisher != nil {
		r.bookingService.SetPublisher(r.publisher)
	}

	bookings.SetupBookingRoutes(rg, bookings.NewController(r.bookingService))
}

// setupPaymentRoutes configures payment dispatch and provider return routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	registry := providers.NewRegistry(
		providers.NewPayHere(r.config.Payments.PayHere),
		providers.NewVNPay(r.config.Payments.VNPay),
	)

	paymentService := payments.NewService(r.bookingService, registry, r.guard, r.config)
	payments.SetupPaymentRoutes(rg, payments.NewController(paymentService))
}
