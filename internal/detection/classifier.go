package detection

import (
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/spatial"
)

// movementBreakpoints is the ordered threshold table mapping speed (m/s) to
// a movement type. Entries must stay sorted ascending by limit.
var movementBreakpoints = []struct {
	limit float64
	kind  models.MovementType
}{
	{0.5, models.MovementStationary},
	{2.0, models.MovementWalking},
	{8.0, models.MovementRunning},
}

// MovementClassifier converts location deltas into movement types and
// separates genuine travel from GPS drift.
type MovementClassifier struct {
	cfg Config
}

// NewMovementClassifier creates a classifier with the given thresholds.
func NewMovementClassifier(cfg Config) *MovementClassifier {
	return &MovementClassifier{cfg: cfg}
}

// Classify maps a speed in m/s to a movement type.
func (c *MovementClassifier) Classify(speedMps float64) models.MovementType {
	for _, bp := range movementBreakpoints {
		if speedMps < bp.limit {
			return bp.kind
		}
	}
	return models.MovementDriving
}

// DetectGenuineMovement reports whether the delta from the last accepted
// sample represents real travel rather than jitter or a teleport artifact.
// The first-ever sample counts as movement; with fewer than
// ConsistencyPoints of history, consistency cannot be disproved and is
// assumed.
func (c *MovementClassifier) DetectGenuineMovement(sample models.LocationSample, last *models.LocationSample, window *SampleWindow) bool {
	if last == nil {
		return true
	}

	distance := spatial.HaversineDistance(last.Latitude, last.Longitude, sample.Latitude, sample.Longitude)
	if distance < c.cfg.MinMovementDistanceM {
		return false
	}

	elapsedMs := sample.Timestamp - last.Timestamp
	if elapsedMs <= 0 {
		return false
	}
	impliedKmh := spatial.MpsToKmh(distance / (float64(elapsedMs) / 1000.0))
	if impliedKmh > c.cfg.MaxPlausibleSpeedKmh {
		return false
	}

	if window.Len() < c.cfg.ConsistencyPoints {
		return true
	}

	points := append(window.Last(c.cfg.ConsistencyPoints), sample)
	efficiency, pathM := pathEfficiency(points)
	return efficiency > c.cfg.MinPathEfficiency || pathM > c.cfg.ConsistencyExemptM
}

// Metrics derives movement figures for a sample relative to the previous
// accepted one.
func (c *MovementClassifier) Metrics(sample, prev models.LocationSample, window *SampleWindow) models.MovementMetrics {
	m := models.MovementMetrics{
		DistanceMeters: spatial.HaversineDistance(prev.Latitude, prev.Longitude, sample.Latitude, sample.Longitude),
		ElapsedMs:      sample.Timestamp - prev.Timestamp,
	}
	if m.ElapsedMs > 0 {
		m.SpeedKmh = spatial.MpsToKmh(m.DistanceMeters / (float64(m.ElapsedMs) / 1000.0))
	}
	if window.Len() >= c.cfg.ConsistencyPoints {
		points := append(window.Last(c.cfg.ConsistencyPoints), sample)
		m.Consistency, _ = pathEfficiency(points)
	} else {
		m.Consistency = 1.0
	}
	m.IsStationary = c.Classify(spatial.KmhToMps(m.SpeedKmh)) == models.MovementStationary
	return m
}

// pathEfficiency returns the ratio of direct distance to path distance over
// the given points (0..1) plus the path distance itself. A ratio near 1
// means straight travel; near 0 means the track doubles back on itself,
// which is what stationary GPS drift looks like.
func pathEfficiency(points []models.LocationSample) (float64, float64) {
	if len(points) < 2 {
		return 1.0, 0
	}

	var pathM float64
	for i := 1; i < len(points); i++ {
		pathM += spatial.HaversineDistance(
			points[i-1].Latitude, points[i-1].Longitude,
			points[i].Latitude, points[i].Longitude,
		)
	}
	if pathM == 0 {
		return 0, 0
	}

	first, last := points[0], points[len(points)-1]
	directM := spatial.HaversineDistance(first.Latitude, first.Longitude, last.Latitude, last.Longitude)
	return directM / pathM, pathM
}
