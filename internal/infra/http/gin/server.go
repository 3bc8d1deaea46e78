package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"lodging/internal/infra/config"
	"lodging/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Availability(c *gin.Context)
	Quote(c *gin.Context)
}

type CalendarHTTP interface {
	BulkEdit(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	ListByRoom(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Calendar     CalendarHTTP
	Booking      BookingHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter registers every route on a fresh engine.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	rooms := api.Group("/rooms/:id")
	if h.Availability != nil {
		rooms.GET("/availability", h.Availability.Availability)
		rooms.GET("/quote", h.Availability.Quote)
	}
	if h.Calendar != nil {
		rooms.POST("/calendar/bulk-edit", h.Calendar.BulkEdit)
	}
	if h.Booking != nil {
		rooms.POST("/bookings", h.Booking.Create)
		rooms.GET("/reservations", h.Booking.ListByRoom)
		api.POST("/reservations/:id/cancel", h.Booking.Cancel)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
