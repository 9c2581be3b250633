package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mfelden/tripwatch-backend-go/internal/database"
	"github.com/mfelden/tripwatch-backend-go/internal/detection"
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/repository"
	"github.com/mfelden/tripwatch-backend-go/internal/service"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *detection.Engine, *repository.TripRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := repository.NewTripRepository(db)
	engine := detection.NewEngine(detection.DefaultConfig(), repo)
	engine.Start()
	t.Cleanup(engine.Stop)

	engineHandler := NewEngineHandler(engine)
	tripHandler := NewTripHandler(service.NewTripService(repo))

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/samples", engineHandler.SubmitSample)
	api.POST("/samples/batch", engineHandler.SubmitBatch)
	api.GET("/engine/status", engineHandler.GetStatus)
	api.GET("/engine/transitions", engineHandler.GetTransitions)
	api.POST("/engine/debug", engineHandler.SetDebug)
	api.GET("/trips", tripHandler.GetTrips)
	api.GET("/trips/summary", tripHandler.GetSummary)
	api.GET("/trips/recent", engineHandler.GetRecent)
	api.GET("/trips/:id", tripHandler.GetTripByID)
	return r, engine, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
		}
	}
	return w, env
}

func TestSubmitSampleAcceptsValidPayload(t *testing.T) {
	r, engine, _ := newTestRouter(t)

	sample := models.LocationSample{
		Latitude:  59.3293,
		Longitude: 18.0686,
		Accuracy:  10,
		Speed:     -1,
		Heading:   -1,
		Timestamp: time.Now().UnixMilli(),
	}
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/samples", sample)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if env.Code != 0 {
		t.Fatalf("envelope code = %d, want 0", env.Code)
	}

	status := engine.Status()
	if got := status.BufferSizes["raw"]; got != 1 {
		t.Fatalf("raw buffer = %d, want 1", got)
	}
}

func TestSubmitSampleRejectsMalformedJSON(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/samples", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitBatchRejectsEmpty(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/samples/batch", []models.LocationSample{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitBatchProcessesInOrder(t *testing.T) {
	r, engine, _ := newTestRouter(t)

	base := time.Now().UnixMilli() - 10000
	batch := make([]models.LocationSample, 5)
	for i := range batch {
		batch[i] = models.LocationSample{
			Latitude:  59.3293 + float64(i)*0.001,
			Longitude: 18.0686,
			Accuracy:  10,
			Speed:     -1,
			Heading:   -1,
			Timestamp: base + int64(i)*1000,
		}
	}
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/samples/batch", batch)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := engine.Status().BufferSizes["raw"]; got != 5 {
		t.Fatalf("raw buffer = %d, want 5", got)
	}
}

func TestEngineStatusShape(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/engine/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var status models.EngineStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != models.StateIdle {
		t.Fatalf("state = %q, want %q", status.State, models.StateIdle)
	}
	if !status.IsActive {
		t.Fatal("expected engine to be active")
	}
}

func TestSetDebugMode(t *testing.T) {
	r, engine, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/engine/debug", map[string]bool{"enabled": true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !engine.Status().DebugMode {
		t.Fatal("expected debug mode on")
	}
}

func TestGetTripByIDNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/trips/no-such-trip", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetTripsReturnsPersisted(t *testing.T) {
	r, _, repo := newTestRouter(t)

	for i := 0; i < 3; i++ {
		trip := models.CompletedTrip{
			ID:              fmt.Sprintf("trip-%d", i),
			StartTime:       1700000000000 + int64(i)*3600000,
			EndTime:         1700000600000 + int64(i)*3600000,
			DurationSeconds: 600,
			Status:          models.TripStatusCompleted,
			TotalDistanceKm: 5.0 + float64(i),
			AvgSpeedKmh:     30,
			MaxSpeedKmh:     60,
			QualityScore:    1.0,
			Confidence:      0.85,
			MovementPattern: models.PatternCity,
			PointCount:      50,
		}
		if err := repo.SaveTrip(context.Background(), trip); err != nil {
			t.Fatalf("save trip: %v", err)
		}
	}

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/trips?minDistanceKm=6", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.TripsResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode trips: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
}

func TestGetRecentRejectsNegativeLimit(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/trips/recent?limit=-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
