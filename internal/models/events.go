package models

// TripState is a state of the trip detection state machine.
type TripState string

// Trip detection states
const (
	StateIdle           TripState = "IDLE"
	StatePotentialStart TripState = "POTENTIAL_START"
	StateActive         TripState = "ACTIVE"
	StatePotentialEnd   TripState = "POTENTIAL_END"
)

// EventType identifies a trip lifecycle event.
type EventType string

// Lifecycle event types
const (
	EventStateChanged  EventType = "state_changed"
	EventTripStarted   EventType = "trip_started"
	EventTripProgress  EventType = "trip_progress"
	EventStopDetected  EventType = "stop_detected"
	EventTripCompleted EventType = "trip_completed"
	EventTripDiscarded EventType = "trip_discarded"
)

// Event is the single tagged envelope delivered to subscribers.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp in milliseconds
	Payload   interface{} `json:"payload,omitempty"`
}

// StateChange describes one state machine transition.
type StateChange struct {
	Previous  TripState `json:"previous"`
	Next      TripState `json:"next"`
	Reason    string    `json:"reason"`
	Timestamp int64     `json:"timestamp"` // Unix timestamp in milliseconds
}

// TripProgress is the payload of trip_progress events.
type TripProgress struct {
	TripID         string  `json:"trip_id"`
	TotalDistanceM float64 `json:"total_distance_m"`
	ElapsedMs      int64   `json:"elapsed_ms"`
	PointCount     int     `json:"point_count"`
	SpeedKmh       float64 `json:"speed_kmh"`
}

// StopDetected is the payload of stop_detected events.
type StopDetected struct {
	TripID         string  `json:"trip_id"`
	StopDurationMs int64   `json:"stop_duration_ms"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// TripDiscarded is the payload of trip_discarded events.
type TripDiscarded struct {
	TripID string `json:"trip_id"`
	Reason string `json:"reason"`
}

// TripSnapshot is a read-only view of the in-flight candidate exposed by
// engine status queries.
type TripSnapshot struct {
	ID             string  `json:"id"`
	StartTime      int64   `json:"start_time"`
	ElapsedMs      int64   `json:"elapsed_ms"`
	TotalDistanceM float64 `json:"total_distance_m"`
	PointCount     int     `json:"point_count"`
	Confidence     float64 `json:"confidence"`
}

// EngineStatus is the answer to a status query.
type EngineStatus struct {
	State         TripState     `json:"state"`
	IsActive      bool          `json:"is_active"`
	DebugMode     bool          `json:"debug_mode"`
	TimeInStateMs int64         `json:"time_in_state_ms"`
	BufferSizes   map[string]int `json:"buffer_sizes"`
	ActiveTrip    *TripSnapshot `json:"active_trip,omitempty"`
}
