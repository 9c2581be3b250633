package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfelden/tripwatch-backend-go/internal/config"
	"github.com/mfelden/tripwatch-backend-go/internal/handler"
	"github.com/mfelden/tripwatch-backend-go/internal/middleware"
)

// Handlers bundles the HTTP handlers the router wires up
type Handlers struct {
	Engine *handler.EngineHandler
	Trip   *handler.TripHandler
	Stream *handler.StreamHandler
}

// SetupRouter builds the gin engine with all routes and middleware
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Tripwatch Backend API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		// Location sample ingestion, rate limited per client IP
		samples := api.Group("/samples")
		samples.Use(middleware.RateLimit(600, time.Minute))
		{
			samples.POST("", h.Engine.SubmitSample)
			samples.POST("/batch", h.Engine.SubmitBatch)
		}

		// Engine inspection and control; mutating routes require a token
		engine := api.Group("/engine")
		{
			engine.GET("/status", h.Engine.GetStatus)
			engine.GET("/transitions", h.Engine.GetTransitions)

			control := engine.Group("")
			control.Use(middleware.Auth(cfg.JWTSecret))
			{
				control.POST("/start", h.Engine.Start)
				control.POST("/stop", h.Engine.Stop)
				control.POST("/debug", h.Engine.SetDebug)
			}
		}

		// Archived trips
		trips := api.Group("/trips")
		{
			trips.GET("", h.Trip.GetTrips)
			trips.GET("/summary", h.Trip.GetSummary)
			trips.GET("/recent", h.Engine.GetRecent)
			trips.GET("/:id", h.Trip.GetTripByID)
		}

		// Live event feed
		api.GET("/stream", h.Stream.Serve)
	}

	return r
}
