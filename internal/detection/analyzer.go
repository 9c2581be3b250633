package detection

import (
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/spatial"
)

// TripAnalyzer computes post-hoc statistics over a finished route. It is a
// pure function of the route and trip boundaries; scoring breakpoints are
// fixed so the same route always yields the same record.
type TripAnalyzer struct{}

// NewTripAnalyzer creates a trip analyzer.
func NewTripAnalyzer() *TripAnalyzer {
	return &TripAnalyzer{}
}

// Analyze produces the final quality-scored figures for a completed route.
func (a *TripAnalyzer) Analyze(route []models.LocationSample, startMs, endMs int64) models.TripAnalysis {
	analysis := models.TripAnalysis{
		PointCount: len(route),
	}

	analysis.TotalDistanceKm = routeDistanceMeters(route) / 1000.0

	hours := float64(endMs-startMs) / 3600000.0
	if hours > 0 {
		analysis.AvgSpeedKmh = analysis.TotalDistanceKm / hours
	}

	analysis.MaxSpeedKmh = maxSpeedKmh(route)
	analysis.QualityScore = qualityScore(route)
	analysis.Confidence = detectionConfidence(analysis.TotalDistanceKm, len(route))
	analysis.MovementPattern = classifyPattern(analysis.AvgSpeedKmh)

	return analysis
}

// routeDistanceMeters sums consecutive haversine distances along a route.
func routeDistanceMeters(route []models.LocationSample) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += spatial.HaversineDistance(
			route[i-1].Latitude, route[i-1].Longitude,
			route[i].Latitude, route[i].Longitude,
		)
	}
	return total
}

// maxSpeedKmh takes the maximum of reported fix speeds and segment-implied
// speeds, since many fixes carry no speed reading.
func maxSpeedKmh(route []models.LocationSample) float64 {
	var maxKmh float64
	for i, p := range route {
		if p.HasSpeed() {
			if kmh := spatial.MpsToKmh(p.Speed); kmh > maxKmh {
				maxKmh = kmh
			}
		}
		if i == 0 {
			continue
		}
		elapsedMs := p.Timestamp - route[i-1].Timestamp
		if elapsedMs <= 0 {
			continue
		}
		d := spatial.HaversineDistance(
			route[i-1].Latitude, route[i-1].Longitude,
			p.Latitude, p.Longitude,
		)
		if kmh := spatial.MpsToKmh(d / (float64(elapsedMs) / 1000.0)); kmh > maxKmh {
			maxKmh = kmh
		}
	}
	return maxKmh
}

// qualityScore averages a per-point accuracy score: 1.0 for fixes within
// 50m, 0.7 within 100m, 0.3 beyond. Rewards dense accurate fixes without
// requiring every point be perfect.
func qualityScore(route []models.LocationSample) float64 {
	if len(route) == 0 {
		return 0
	}
	var sum float64
	for _, p := range route {
		switch {
		case p.Accuracy <= 50:
			sum += 1.0
		case p.Accuracy <= 100:
			sum += 0.7
		default:
			sum += 0.3
		}
	}
	return clamp01(sum / float64(len(route)))
}

// detectionConfidence scores how certain the analyzer is that the route is
// a real trip: longer distance and higher point density raise it, capped at
// 0.95 since the heuristic is never fully certain.
func detectionConfidence(distanceKm float64, pointCount int) float64 {
	confidence := 0.5

	if distanceKm > 5 {
		confidence += 0.2
	}
	if distanceKm > 20 {
		confidence += 0.1
	}

	if distanceKm > 0 {
		density := float64(pointCount) / distanceKm
		if density > 10 {
			confidence += 0.1
		}
		if density > 20 {
			confidence += 0.1
		}
	}

	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

// classifyPattern maps average trip speed to a movement pattern.
func classifyPattern(avgSpeedKmh float64) string {
	switch {
	case avgSpeedKmh < 20:
		return models.PatternCity
	case avgSpeedKmh < 60:
		return models.PatternSuburban
	default:
		return models.PatternHighway
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
