package repository

import (
	"context"
	"testing"

	"github.com/mfelden/tripwatch-backend-go/internal/database"
	"github.com/mfelden/tripwatch-backend-go/internal/models"
)

func newTestRepo(t *testing.T) *TripRepository {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewTripRepository(db)
}

func sampleTrip(id string, startMs int64, km float64, status, pattern string) models.CompletedTrip {
	return models.CompletedTrip{
		ID:              id,
		StartTime:       startMs,
		EndTime:         startMs + 600000,
		DurationSeconds: 600,
		StartLat:        59.3293,
		StartLon:        18.0686,
		EndLat:          59.35,
		EndLon:          18.10,
		Status:          status,
		TotalDistanceKm: km,
		AvgSpeedKmh:     km / (600.0 / 3600.0),
		MaxSpeedKmh:     80,
		QualityScore:    0.9,
		Confidence:      0.85,
		MovementPattern: pattern,
		PointCount:      2,
		Route: []models.LocationSample{
			{Latitude: 59.3293, Longitude: 18.0686, Accuracy: 10, Timestamp: startMs},
			{Latitude: 59.35, Longitude: 18.10, Accuracy: 12, Timestamp: startMs + 600000},
		},
	}
}

func TestSaveAndGetTrip(t *testing.T) {
	repo := newTestRepo(t)
	trip := sampleTrip("trip-1", 1700000000000, 8.5, models.TripStatusCompleted, models.PatternSuburban)

	if err := repo.SaveTrip(context.Background(), trip); err != nil {
		t.Fatalf("save trip: %v", err)
	}

	loaded, err := repo.GetTripByID("trip-1")
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected trip to be found")
	}
	if loaded.TotalDistanceKm != trip.TotalDistanceKm || loaded.Status != trip.Status {
		t.Fatalf("loaded trip mismatches saved: %+v", loaded)
	}
	if len(loaded.Route) != 2 {
		t.Fatalf("expected route round-trip with 2 points, got %d", len(loaded.Route))
	}

	missing, err := repo.GetTripByID("nope")
	if err != nil {
		t.Fatalf("get missing trip: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for a missing trip")
	}
}

func TestGetTripsFilterAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := int64(1700000000000)
	for i := 0; i < 5; i++ {
		status := models.TripStatusCompleted
		pattern := models.PatternCity
		if i%2 == 1 {
			status = models.TripStatusForceCompleted
			pattern = models.PatternHighway
		}
		trip := sampleTrip(
			"trip-"+string(rune('a'+i)),
			base+int64(i)*3600000,
			float64(i+1),
			status, pattern,
		)
		if err := repo.SaveTrip(ctx, trip); err != nil {
			t.Fatalf("save trip %d: %v", i, err)
		}
	}

	// Status filter
	trips, total, err := repo.GetTrips(models.TripFilter{Status: models.TripStatusForceCompleted})
	if err != nil {
		t.Fatalf("get trips: %v", err)
	}
	if total != 2 || len(trips) != 2 {
		t.Fatalf("expected 2 force-completed trips, got total=%d len=%d", total, len(trips))
	}

	// Distance filter
	_, total, err = repo.GetTrips(models.TripFilter{MinDistanceKm: 3})
	if err != nil {
		t.Fatalf("get trips: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 trips of at least 3km, got %d", total)
	}

	// Time range filter
	_, total, err = repo.GetTrips(models.TripFilter{StartTime: base + 2*3600000})
	if err != nil {
		t.Fatalf("get trips: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 trips starting at or after the cutoff, got %d", total)
	}

	// Pagination, newest first
	page, total, err := repo.GetTrips(models.TripFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("get trips: %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("expected page of 2 from 5, got total=%d len=%d", total, len(page))
	}
	if page[0].StartTime < page[1].StartTime {
		t.Fatal("trips must be ordered newest first")
	}
}

func TestGetSummary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.SaveTrip(ctx, sampleTrip("a", 1700000000000, 10, models.TripStatusCompleted, models.PatternCity))
	repo.SaveTrip(ctx, sampleTrip("b", 1700003600000, 30, models.TripStatusCompleted, models.PatternHighway))

	summary, err := repo.GetSummary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TripCount != 2 {
		t.Fatalf("expected 2 trips, got %d", summary.TripCount)
	}
	if summary.TotalDistanceKm != 40 {
		t.Fatalf("expected 40 km total, got %f", summary.TotalDistanceKm)
	}
	if summary.PatternCounts[models.PatternCity] != 1 || summary.PatternCounts[models.PatternHighway] != 1 {
		t.Fatalf("unexpected pattern counts: %v", summary.PatternCounts)
	}
}
