package detection

import (
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/spatial"
)

// Rejection reason codes
const (
	ReasonLowAccuracy   = "LOW_ACCURACY"
	ReasonStale         = "STALE"
	ReasonInvalidCoords = "INVALID_COORDINATES"
	ReasonDuplicate     = "DUPLICATE"
)

// QualityFilter gates raw GPS samples before any analysis. It is a pure
// decision function of (sample, previous accepted sample, config, clock):
// it mutates no buffers and keeps no state of its own.
type QualityFilter struct {
	cfg Config
}

// NewQualityFilter creates a quality filter with the given thresholds.
func NewQualityFilter(cfg Config) *QualityFilter {
	return &QualityFilter{cfg: cfg}
}

// Accept decides whether a sample passes the quality gate. Rules are
// evaluated in order and the first match wins. On rejection the second
// return value carries the reason code.
func (f *QualityFilter) Accept(sample models.LocationSample, prev *models.LocationSample, nowMs int64) (bool, string) {
	if sample.Accuracy > f.cfg.MaxAccuracyM {
		return false, ReasonLowAccuracy
	}

	if sample.AgeMs(nowMs) > f.cfg.MaxSampleAgeMs {
		return false, ReasonStale
	}

	if !sample.CoordinatesValid() {
		return false, ReasonInvalidCoords
	}

	if prev != nil {
		distance := spatial.HaversineDistance(prev.Latitude, prev.Longitude, sample.Latitude, sample.Longitude)
		timeDelta := sample.Timestamp - prev.Timestamp
		if distance < f.cfg.DuplicateDistanceM && timeDelta < f.cfg.DuplicateWindowMs {
			return false, ReasonDuplicate
		}
	}

	return true, ""
}
