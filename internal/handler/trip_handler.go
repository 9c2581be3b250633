package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/service"
	"github.com/mfelden/tripwatch-backend-go/pkg/response"
)

// TripHandler handles HTTP requests for archived trips
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// GetTrips handles GET /api/v1/trips
func (h *TripHandler) GetTrips(c *gin.Context) {
	var filter models.TripFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	trips, err := h.tripService.GetTrips(filter)
	if err != nil {
		log.Printf("[TripHandler] Failed to get trips: %v", err)
		response.InternalError(c, "Failed to get trips")
		return
	}

	response.Success(c, trips)
}

// GetTripByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetTripByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "Missing trip id")
		return
	}

	trip, err := h.tripService.GetTripByID(id)
	if err != nil {
		log.Printf("[TripHandler] Failed to get trip %s: %v", id, err)
		response.InternalError(c, "Failed to get trip")
		return
	}
	if trip == nil {
		response.NotFound(c, "Trip not found")
		return
	}

	response.Success(c, trip)
}

// GetSummary handles GET /api/v1/trips/summary
func (h *TripHandler) GetSummary(c *gin.Context) {
	summary, err := h.tripService.GetSummary()
	if err != nil {
		log.Printf("[TripHandler] Failed to get summary: %v", err)
		response.InternalError(c, "Failed to get trip summary")
		return
	}

	response.Success(c, summary)
}
