package detection

// Config defines the tunable thresholds of the detection pipeline. A Config
// value is set at construction and never mutated afterward, so runs with the
// same config and sample stream are reproducible.
type Config struct {
	// Quality filter
	MaxAccuracyM       float64 // reject fixes less precise than this
	MaxSampleAgeMs     int64   // reject fixes older than this
	DuplicateDistanceM float64 // below this distance and
	DuplicateWindowMs  int64   // ...below this time delta, a fix is a duplicate

	// Genuine movement detection
	MinMovementDistanceM float64 // below this, a delta is GPS jitter
	MaxPlausibleSpeedKmh float64 // above this implied speed, a delta is a teleport artifact
	ConsistencyPoints    int     // history points used for the path efficiency check
	MinPathEfficiency    float64 // direct/path ratio above which movement is consistent
	ConsistencyExemptM   float64 // path length above which consistency is assumed

	// Trip start
	StartWindowPoints       int     // recent points evaluated for trip start
	StartDistanceM          float64 // windowed path distance to enter PotentialStart
	StartAvgSpeedKmh        float64 // windowed average speed to enter PotentialStart
	StartConsistency        float64 // windowed consistency to enter PotentialStart
	ConfirmDistanceM        float64 // distance from start to confirm Active
	ConfirmAvgSpeedKmh      float64 // trip average speed to confirm Active
	ConfirmMinElapsedMs     int64   // minimum candidate age to confirm Active
	PotentialStartTimeoutMs int64   // discard an unconfirmed candidate after this

	// Trip end
	StationaryRadiusM      float64 // within this of the last significant fix counts as stationary
	StopToPotentialEndMs   int64   // stop duration that moves Active to PotentialEnd
	EndStopDurationMs      int64   // stop duration that completes a trip
	EndMinDistanceM        float64 // minimum trip distance for a normal completion
	ForceEndStopDurationMs int64   // stop duration that force-completes regardless of distance

	// Buffers
	RawWindowSize      int // raw accepted-sample history
	AnalysisWindowSize int // detection engine analysis buffer
	StopBufferSize     int // stop-detection buffer
	TransitionLogSize  int // state transition audit ring
	HistorySize        int // completed trip ring
	MaxRoutePoints     int // in-flight route cap before downsampling
}

// DefaultConfig provides the stock detection thresholds.
func DefaultConfig() Config {
	return Config{
		MaxAccuracyM:       50.0,
		MaxSampleAgeMs:     30000,
		DuplicateDistanceM: 1.0,
		DuplicateWindowMs:  2000,

		MinMovementDistanceM: 5.0,
		MaxPlausibleSpeedKmh: 200.0,
		ConsistencyPoints:    3,
		MinPathEfficiency:    0.3,
		ConsistencyExemptM:   50.0,

		StartWindowPoints:       10,
		StartDistanceM:          100.0,
		StartAvgSpeedKmh:        5.0,
		StartConsistency:        0.3,
		ConfirmDistanceM:        500.0,
		ConfirmAvgSpeedKmh:      3.0,
		ConfirmMinElapsedMs:     30000,
		PotentialStartTimeoutMs: 120000,

		StationaryRadiusM:      50.0,
		StopToPotentialEndMs:   5 * 60 * 1000,
		EndStopDurationMs:      450000, // 7.5 minutes
		EndMinDistanceM:        500.0,
		ForceEndStopDurationMs: 15 * 60 * 1000,

		RawWindowSize:      50,
		AnalysisWindowSize: 100,
		StopBufferSize:     20,
		TransitionLogSize:  50,
		HistorySize:        100,
		MaxRoutePoints:     10000,
	}
}
