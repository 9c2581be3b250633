package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mfelden/tripwatch-backend-go/internal/models"
)

// TripRepository handles database operations for completed trips. It is the
// persistence sink the detection engine hands finalized records to.
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, start_time, end_time, duration_seconds,
	start_lat, start_lon, end_lat, end_lon,
	status, total_distance_km, avg_speed_kmh, max_speed_kmh,
	quality_score, confidence, movement_pattern, point_count`

// SaveTrip persists one finalized trip, route included.
func (r *TripRepository) SaveTrip(ctx context.Context, trip models.CompletedTrip) error {
	var routeJSON []byte
	if len(trip.Route) > 0 {
		var err error
		routeJSON, err = json.Marshal(trip.Route)
		if err != nil {
			return fmt.Errorf("failed to marshal route: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trips (
			id, start_time, end_time, duration_seconds,
			start_lat, start_lon, end_lat, end_lon,
			status, total_distance_km, avg_speed_kmh, max_speed_kmh,
			quality_score, confidence, movement_pattern, point_count, route_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.StartTime, trip.EndTime, trip.DurationSeconds,
		trip.StartLat, trip.StartLon, trip.EndLat, trip.EndLon,
		trip.Status, trip.TotalDistanceKm, trip.AvgSpeedKmh, trip.MaxSpeedKmh,
		trip.QualityScore, trip.Confidence, trip.MovementPattern, trip.PointCount,
		string(routeJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// GetTrips retrieves trips with filtering and pagination
func (r *TripRepository) GetTrips(filter models.TripFilter) ([]models.CompletedTrip, int64, error) {
	query := "SELECT " + tripColumns + " FROM trips"

	var conditions []string
	var args []interface{}

	if filter.StartTime > 0 {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, filter.EndTime)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Pattern != "" {
		conditions = append(conditions, "movement_pattern = ?")
		args = append(args, filter.Pattern)
	}
	if filter.MinDistanceKm > 0 {
		conditions = append(conditions, "total_distance_km >= ?")
		args = append(args, filter.MinDistanceKm)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM trips"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}
	offset := (filter.Page - 1) * filter.PageSize

	rows, err := r.db.Query(query+where+" ORDER BY start_time DESC LIMIT ? OFFSET ?",
		append(args, filter.PageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.CompletedTrip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return trips, total, nil
}

// GetTripByID retrieves a single trip by ID, route included. Returns nil
// when no such trip exists.
func (r *TripRepository) GetTripByID(id string) (*models.CompletedTrip, error) {
	row := r.db.QueryRow("SELECT "+tripColumns+", route_json FROM trips WHERE id = ?", id)

	var t models.CompletedTrip
	var routeJSON sql.NullString
	err := row.Scan(
		&t.ID, &t.StartTime, &t.EndTime, &t.DurationSeconds,
		&t.StartLat, &t.StartLon, &t.EndLat, &t.EndLon,
		&t.Status, &t.TotalDistanceKm, &t.AvgSpeedKmh, &t.MaxSpeedKmh,
		&t.QualityScore, &t.Confidence, &t.MovementPattern, &t.PointCount,
		&routeJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	if routeJSON.Valid && routeJSON.String != "" {
		if err := json.Unmarshal([]byte(routeJSON.String), &t.Route); err != nil {
			return nil, fmt.Errorf("failed to unmarshal route: %w", err)
		}
	}
	return &t, nil
}

// GetSummary aggregates the whole trip archive.
func (r *TripRepository) GetSummary() (models.TripSummary, error) {
	summary := models.TripSummary{PatternCounts: make(map[string]int64)}

	err := r.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(total_distance_km), 0),
			COALESCE(SUM(duration_seconds), 0),
			COALESCE(AVG(quality_score), 0)
		FROM trips
	`).Scan(&summary.TripCount, &summary.TotalDistanceKm, &summary.TotalDurationSec, &summary.AvgQualityScore)
	if err != nil {
		return summary, fmt.Errorf("failed to aggregate trips: %w", err)
	}

	rows, err := r.db.Query("SELECT movement_pattern, COUNT(*) FROM trips GROUP BY movement_pattern")
	if err != nil {
		return summary, fmt.Errorf("failed to count patterns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pattern string
		var count int64
		if err := rows.Scan(&pattern, &count); err != nil {
			return summary, fmt.Errorf("failed to scan pattern count: %w", err)
		}
		summary.PatternCounts[pattern] = count
	}
	return summary, rows.Err()
}

func scanTrip(rows *sql.Rows) (models.CompletedTrip, error) {
	var t models.CompletedTrip
	err := rows.Scan(
		&t.ID, &t.StartTime, &t.EndTime, &t.DurationSeconds,
		&t.StartLat, &t.StartLon, &t.EndLat, &t.EndLon,
		&t.Status, &t.TotalDistanceKm, &t.AvgSpeedKmh, &t.MaxSpeedKmh,
		&t.QualityScore, &t.Confidence, &t.MovementPattern, &t.PointCount,
	)
	if err != nil {
		return t, fmt.Errorf("failed to scan trip: %w", err)
	}
	return t, nil
}
