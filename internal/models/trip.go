package models

// TripStatus marks how a trip reached finalization.
const (
	TripStatusCompleted      = "completed"
	TripStatusForceCompleted = "force_completed"
)

// MovementPattern constants derived from average trip speed.
const (
	PatternCity     = "CITY"
	PatternSuburban = "SUBURBAN"
	PatternHighway  = "HIGHWAY"
)

// TripCandidate is an in-progress, not-yet-finalized trip under
// construction by the detection state machine. The state machine owns it
// exclusively; nothing else reads or mutates it mid-flight.
type TripCandidate struct {
	ID              string
	StartTime       int64 // Unix timestamp in milliseconds
	StartLocation   LocationSample
	Route           []LocationSample // append-only, time-ordered
	TotalDistanceM  float64
	Confidence      float64 // 0..1, never decreases once assigned
	LastSignificant LocationSample // most recent non-stationary fix
}

// CompletedTrip is the immutable finalized trip record handed to the sink.
type CompletedTrip struct {
	ID string `json:"id" db:"id"`

	// Temporal info
	StartTime       int64 `json:"start_time" db:"start_time"` // Unix timestamp in milliseconds
	EndTime         int64 `json:"end_time" db:"end_time"`     // Unix timestamp in milliseconds
	DurationSeconds int64 `json:"duration_seconds" db:"duration_seconds"`

	// Endpoints
	StartLat float64 `json:"start_lat" db:"start_lat"`
	StartLon float64 `json:"start_lon" db:"start_lon"`
	EndLat   float64 `json:"end_lat" db:"end_lat"`
	EndLon   float64 `json:"end_lon" db:"end_lon"`

	// Trip characteristics
	Status          string  `json:"status" db:"status"` // completed | force_completed
	TotalDistanceKm float64 `json:"total_distance_km" db:"total_distance_km"`
	AvgSpeedKmh     float64 `json:"avg_speed_kmh" db:"avg_speed_kmh"`
	MaxSpeedKmh     float64 `json:"max_speed_kmh" db:"max_speed_kmh"`
	QualityScore    float64 `json:"quality_score" db:"quality_score"`       // 0..1
	Confidence      float64 `json:"confidence" db:"confidence"`             // 0..1
	MovementPattern string  `json:"movement_pattern" db:"movement_pattern"` // CITY | SUBURBAN | HIGHWAY
	PointCount      int     `json:"point_count" db:"point_count"`

	// Full route, persisted as JSON by the sink
	Route []LocationSample `json:"route,omitempty"`
}

// TripAnalysis is the pure analyzer output folded into a CompletedTrip at
// finalization.
type TripAnalysis struct {
	TotalDistanceKm float64 `json:"total_distance_km"`
	AvgSpeedKmh     float64 `json:"avg_speed_kmh"`
	MaxSpeedKmh     float64 `json:"max_speed_kmh"`
	QualityScore    float64 `json:"quality_score"`
	Confidence      float64 `json:"confidence"`
	MovementPattern string  `json:"movement_pattern"`
	PointCount      int     `json:"point_count"`
}

// TripFilter represents filter parameters for querying completed trips
type TripFilter struct {
	StartTime     int64   `form:"startTime"` // Unix timestamp in milliseconds
	EndTime       int64   `form:"endTime"`   // Unix timestamp in milliseconds
	Status        string  `form:"status"`
	Pattern       string  `form:"pattern"`
	MinDistanceKm float64 `form:"minDistanceKm"`
	Page          int     `form:"page"`
	PageSize      int     `form:"pageSize"`
}

// TripsResponse represents a paginated response of completed trips
type TripsResponse struct {
	Data       []CompletedTrip `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// TripSummary aggregates the persisted trip archive.
type TripSummary struct {
	TripCount        int64            `json:"trip_count"`
	TotalDistanceKm  float64          `json:"total_distance_km"`
	TotalDurationSec int64            `json:"total_duration_seconds"`
	AvgQualityScore  float64          `json:"avg_quality_score"`
	PatternCounts    map[string]int64 `json:"pattern_counts"`
}
