package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mfelden/tripwatch-backend-go/internal/detection"
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/pkg/response"
)

// EngineHandler handles HTTP requests for the detection engine
type EngineHandler struct {
	engine *detection.Engine
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(engine *detection.Engine) *EngineHandler {
	return &EngineHandler{engine: engine}
}

// SubmitSample handles POST /api/v1/samples
func (h *EngineHandler) SubmitSample(c *gin.Context) {
	var sample models.LocationSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		response.BadRequest(c, "Invalid sample payload")
		return
	}

	h.engine.SubmitSample(sample)
	response.Success(c, gin.H{"state": h.engine.Status().State})
}

// SubmitBatch handles POST /api/v1/samples/batch. Samples are processed in
// the order given.
func (h *EngineHandler) SubmitBatch(c *gin.Context) {
	var samples []models.LocationSample
	if err := c.ShouldBindJSON(&samples); err != nil {
		response.BadRequest(c, "Invalid batch payload")
		return
	}
	if len(samples) == 0 {
		response.BadRequest(c, "Empty batch")
		return
	}

	for _, sample := range samples {
		h.engine.SubmitSample(sample)
	}
	response.Success(c, gin.H{
		"submitted": len(samples),
		"state":     h.engine.Status().State,
	})
}

// GetStatus handles GET /api/v1/engine/status
func (h *EngineHandler) GetStatus(c *gin.Context) {
	response.Success(c, h.engine.Status())
}

// GetTransitions handles GET /api/v1/engine/transitions
func (h *EngineHandler) GetTransitions(c *gin.Context) {
	response.Success(c, h.engine.Transitions())
}

// Start handles POST /api/v1/engine/start
func (h *EngineHandler) Start(c *gin.Context) {
	h.engine.Start()
	response.Success(c, h.engine.Status())
}

// Stop handles POST /api/v1/engine/stop. Any in-flight trip is
// force-finalized before the engine halts.
func (h *EngineHandler) Stop(c *gin.Context) {
	h.engine.Stop()
	response.Success(c, h.engine.Status())
}

// SetDebug handles POST /api/v1/engine/debug
func (h *EngineHandler) SetDebug(c *gin.Context) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid debug payload")
		return
	}
	h.engine.SetDebugMode(body.Enabled)
	response.Success(c, gin.H{"debug_mode": body.Enabled})
}

// GetRecent handles GET /api/v1/trips/recent: the in-memory completion
// ring, independent of the persisted archive.
func (h *EngineHandler) GetRecent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}
	response.Success(c, h.engine.History(limit))
}
