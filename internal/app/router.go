package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cabbooking/internal/domain"
	"cabbooking/internal/handler"
	"cabbooking/internal/logger"
	"cabbooking/internal/middleware"
	"cabbooking/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler *handler.BookingHandler
	PaymentHandler *handler.PaymentHandler
	AccountHandler *handler.AccountHandler
	CabHandler     *handler.CabHandler
	DriverHandler  *handler.DriverHandler
	WSHandler      *handler.WSHandler
	Idempotency    redis.IdempotencyStoreInterface
	NewRelicApp    *newrelic.Application
	Logger         *logger.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.CallerMiddleware())
	if deps.NewRelicApp != nil {
		router.Use(middleware.NewRelicCaller())
	}
	router.Use(middleware.IdempotencyMiddleware(deps.Idempotency, deps.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rider := middleware.RequireRole(domain.RoleRider)
	driver := middleware.RequireRole(domain.RoleDriver)
	admin := middleware.RequireRole(domain.RoleAdmin)

	v1 := router.Group("/v1")
	{
		// Registration is open; the gateway callback authenticates upstream.
		v1.POST("/accounts", deps.AccountHandler.Register)
		v1.POST("/payments/callback", deps.PaymentHandler.Callback)

		authed := v1.Group("", middleware.RequireCaller())

		authed.GET("/accounts/:id", deps.AccountHandler.GetAccount)
		authed.GET("/ws", deps.WSHandler.Connect)

		bookings := authed.Group("/bookings")
		{
			bookings.POST("", rider, deps.BookingHandler.RequestRide)
			bookings.GET("/mine", deps.BookingHandler.ListMyBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.PUT("/:id/accept", driver, deps.BookingHandler.Accept())
			bookings.PUT("/:id/arrived", driver, deps.BookingHandler.Arrive())
			bookings.PUT("/:id/start", driver, deps.BookingHandler.Start())
			bookings.PUT("/:id/complete", driver, deps.BookingHandler.Complete())
			bookings.PUT("/:id/cancel", deps.BookingHandler.Cancel())
			bookings.POST("/:id/rating", rider, deps.BookingHandler.RateDriver)
		}

		cabs := authed.Group("/cabs")
		{
			cabs.POST("", driver, deps.CabHandler.RegisterCab)
			cabs.GET("", deps.CabHandler.ListActiveCabs)
			cabs.GET("/:id", deps.CabHandler.GetCab)
			cabs.PUT("/:id", deps.CabHandler.UpdateCab)
			cabs.PUT("/:id/deactivate", deps.CabHandler.DeactivateCab)
		}

		drivers := authed.Group("/drivers/me", driver)
		{
			drivers.PUT("/location", deps.DriverHandler.UpdateLocation)
			drivers.PUT("/availability", deps.DriverHandler.SetAvailability)
		}

		payments := authed.Group("/payments")
		{
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
			payments.POST("/:id/initiate", deps.PaymentHandler.Initiate)
			payments.POST("/:id/refund", admin, deps.PaymentHandler.Refund)
		}

		adminGroup := authed.Group("/admin", admin)
		{
			adminGroup.GET("/bookings", deps.BookingHandler.ListBookings)
			adminGroup.GET("/drivers", deps.AccountHandler.ListDrivers)
		}
	}

	return router
}
