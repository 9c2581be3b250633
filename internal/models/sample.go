package models

// LocationSample represents one GPS fix as delivered by the platform
// location source. Samples are immutable after creation.
type LocationSample struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Accuracy  float64 `json:"accuracy" db:"accuracy"`   // meters, non-negative
	Altitude  float64 `json:"altitude" db:"altitude"`   // meters, 0 when absent
	Speed     float64 `json:"speed" db:"speed"`         // m/s, negative when the fix carries no speed
	Heading   float64 `json:"heading" db:"heading"`     // degrees 0-360, negative when absent
	Timestamp int64   `json:"timestamp" db:"timestamp"` // Unix timestamp in milliseconds
}

// AgeMs returns how old the sample is relative to the given clock reading.
func (s LocationSample) AgeMs(nowMs int64) int64 {
	return nowMs - s.Timestamp
}

// HasSpeed reports whether the fix carried a speed reading.
func (s LocationSample) HasSpeed() bool {
	return s.Speed >= 0
}

// CoordinatesValid reports whether latitude and longitude are inside the
// WGS84 range.
func (s LocationSample) CoordinatesValid() bool {
	return s.Latitude >= -90 && s.Latitude <= 90 &&
		s.Longitude >= -180 && s.Longitude <= 180
}

// MovementType classifies instantaneous movement by speed.
type MovementType string

// Movement type constants
const (
	MovementStationary MovementType = "STATIONARY"
	MovementWalking    MovementType = "WALKING"
	MovementRunning    MovementType = "RUNNING"
	MovementDriving    MovementType = "DRIVING"
)

// MovementMetrics holds derived movement figures between two accepted
// samples. It is transient and recomputed per sample.
type MovementMetrics struct {
	DistanceMeters float64 `json:"distance_meters"`
	ElapsedMs      int64   `json:"elapsed_ms"`
	SpeedKmh       float64 `json:"speed_kmh"`
	Consistency    float64 `json:"consistency"` // direct distance / path distance, 0..1
	IsStationary   bool    `json:"is_stationary"`
}
