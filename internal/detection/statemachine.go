package detection

import (
	"log"

	"github.com/google/uuid"

	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/spatial"
)

// Confidence levels assigned as trip evidence accumulates. Confidence only
// ever moves up between these points.
const (
	candidateConfidence = 0.6
	confirmedConfidence = 0.85
)

// StateMachine consumes quality-passed samples and drives the trip
// lifecycle: Idle -> PotentialStart -> Active -> PotentialEnd ->
// (Completed | Discarded) -> Idle. It owns the single in-flight
// TripCandidate exclusively. All time-based decisions are evaluated lazily
// against sample timestamps on the next incoming sample, so the machine is
// deterministic under replay.
type StateMachine struct {
	cfg        Config
	classifier *MovementClassifier
	analyzer   *TripAnalyzer
	emit       func(models.Event)
	debug      bool

	state       models.TripState
	stateSince  int64
	candidate   *models.TripCandidate
	analysis    *SampleWindow
	stopBuffer  *SampleWindow
	stopStartMs int64 // timestamp of the first sample of the current stop accrual, 0 when moving
	transitions []models.StateChange
}

// NewStateMachine creates a state machine in Idle. Events are delivered
// synchronously through emit; pass nil to run silent.
func NewStateMachine(cfg Config, emit func(models.Event)) *StateMachine {
	return &StateMachine{
		cfg:        cfg,
		classifier: NewMovementClassifier(cfg),
		analyzer:   NewTripAnalyzer(),
		emit:       emit,
		state:      models.StateIdle,
		analysis:   NewSampleWindow(cfg.AnalysisWindowSize),
		stopBuffer: NewSampleWindow(cfg.StopBufferSize),
	}
}

// State returns the current lifecycle state.
func (m *StateMachine) State() models.TripState {
	return m.state
}

// StateSince returns the timestamp (ms) of the last transition, 0 if the
// machine has never left Idle.
func (m *StateMachine) StateSince() int64 {
	return m.stateSince
}

// SetDebug toggles per-sample diagnostic logging.
func (m *StateMachine) SetDebug(enabled bool) {
	m.debug = enabled
}

// Transitions returns a copy of the bounded transition audit log, oldest
// first.
func (m *StateMachine) Transitions() []models.StateChange {
	out := make([]models.StateChange, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// Snapshot returns a read-only view of the in-flight candidate, nil when
// no trip is in progress.
func (m *StateMachine) Snapshot(nowMs int64) *models.TripSnapshot {
	if m.candidate == nil {
		return nil
	}
	return &models.TripSnapshot{
		ID:             m.candidate.ID,
		StartTime:      m.candidate.StartTime,
		ElapsedMs:      nowMs - m.candidate.StartTime,
		TotalDistanceM: m.candidate.TotalDistanceM,
		PointCount:     len(m.candidate.Route),
		Confidence:     m.candidate.Confidence,
	}
}

// BufferSizes reports current buffer occupancy for diagnostics.
func (m *StateMachine) BufferSizes() map[string]int {
	return map[string]int{
		"analysis":    m.analysis.Len(),
		"stop":        m.stopBuffer.Len(),
		"transitions": len(m.transitions),
	}
}

// Process consumes one accepted sample and returns a finalized trip when
// the sample closes one, nil otherwise. Malformed or out-of-order samples
// are dropped silently; the machine never fails on bad input.
func (m *StateMachine) Process(sample models.LocationSample) *models.CompletedTrip {
	if !sample.CoordinatesValid() {
		m.debugf("dropping sample with invalid coordinates (%.6f, %.6f)", sample.Latitude, sample.Longitude)
		return nil
	}
	if latest, ok := m.analysis.Latest(); ok && sample.Timestamp < latest.Timestamp {
		m.debugf("dropping out-of-order sample (ts=%d, latest=%d)", sample.Timestamp, latest.Timestamp)
		return nil
	}

	var last *models.LocationSample
	if latest, ok := m.analysis.Latest(); ok {
		prev := latest
		last = &prev
	}
	genuine := m.classifier.DetectGenuineMovement(sample, last, m.analysis)
	m.analysis.Add(sample)

	switch m.state {
	case models.StateIdle:
		m.handleIdle(sample, genuine)
	case models.StatePotentialStart:
		m.handlePotentialStart(sample)
	case models.StateActive:
		m.handleActive(sample)
	case models.StatePotentialEnd:
		return m.handlePotentialEnd(sample)
	}
	return nil
}

// handleIdle watches the analysis window for sustained genuine movement and
// opens a trip candidate when the start conditions hold.
func (m *StateMachine) handleIdle(sample models.LocationSample, genuine bool) {
	if !genuine {
		return
	}

	points := m.analysis.Last(m.cfg.StartWindowPoints)
	if len(points) < 2 {
		return
	}

	consistency, pathM := pathEfficiency(points)
	elapsedMs := points[len(points)-1].Timestamp - points[0].Timestamp
	if elapsedMs <= 0 {
		return
	}
	avgKmh := spatial.MpsToKmh(pathM / (float64(elapsedMs) / 1000.0))

	if pathM > m.cfg.StartDistanceM && avgKmh > m.cfg.StartAvgSpeedKmh && consistency > m.cfg.StartConsistency {
		m.candidate = &models.TripCandidate{
			ID:              uuid.NewString(),
			StartTime:       sample.Timestamp,
			StartLocation:   sample,
			Route:           []models.LocationSample{sample},
			Confidence:      candidateConfidence,
			LastSignificant: sample,
		}
		m.transitionTo(models.StatePotentialStart, "movement_threshold", sample.Timestamp)
	}
}

// handlePotentialStart either confirms the candidate into an Active trip or
// discards it when confirmation does not arrive in time.
func (m *StateMachine) handlePotentialStart(sample models.LocationSample) {
	cand := m.candidate
	m.appendRoute(sample)

	elapsedMs := sample.Timestamp - cand.StartTime
	distFromStartM := spatial.HaversineDistance(
		cand.StartLocation.Latitude, cand.StartLocation.Longitude,
		sample.Latitude, sample.Longitude,
	)
	var avgKmh float64
	if elapsedMs > 0 {
		avgKmh = spatial.MpsToKmh(cand.TotalDistanceM / (float64(elapsedMs) / 1000.0))
	}

	if distFromStartM > m.cfg.ConfirmDistanceM && avgKmh > m.cfg.ConfirmAvgSpeedKmh && elapsedMs >= m.cfg.ConfirmMinElapsedMs {
		if confirmedConfidence > cand.Confidence {
			cand.Confidence = confirmedConfidence
		}
		cand.LastSignificant = sample
		m.transitionTo(models.StateActive, "trip_confirmed", sample.Timestamp)
		m.emitEvent(models.EventTripStarted, m.Snapshot(sample.Timestamp), sample.Timestamp)
		return
	}

	if elapsedMs > m.cfg.PotentialStartTimeoutMs {
		m.discard("no_confirmation", sample.Timestamp)
	}
}

// handleActive tracks the trip in progress: non-stationary samples advance
// the last significant location, stationary samples accrue in the stop
// buffer until the stop is long enough to suggest the trip may be over.
func (m *StateMachine) handleActive(sample models.LocationSample) {
	cand := m.candidate
	m.appendRoute(sample)

	distM := spatial.HaversineDistance(
		cand.LastSignificant.Latitude, cand.LastSignificant.Longitude,
		sample.Latitude, sample.Longitude,
	)

	if distM < m.cfg.StationaryRadiusM {
		m.stopBuffer.Add(sample)
		if m.stopStartMs == 0 {
			m.stopStartMs = sample.Timestamp
		}
		stopMs := sample.Timestamp - m.stopStartMs
		if stopMs > m.cfg.StopToPotentialEndMs {
			m.transitionTo(models.StatePotentialEnd, "prolonged_stop", sample.Timestamp)
			m.emitEvent(models.EventStopDetected, models.StopDetected{
				TripID:         cand.ID,
				StopDurationMs: stopMs,
				Latitude:       sample.Latitude,
				Longitude:      sample.Longitude,
			}, sample.Timestamp)
		}
		return
	}

	cand.LastSignificant = sample
	m.stopBuffer.Clear()
	m.stopStartMs = 0

	speedKmh := 0.0
	if sample.HasSpeed() {
		speedKmh = spatial.MpsToKmh(sample.Speed)
	} else if n := len(cand.Route); n >= 2 {
		if dt := sample.Timestamp - cand.Route[n-2].Timestamp; dt > 0 {
			segM := spatial.HaversineDistance(
				cand.Route[n-2].Latitude, cand.Route[n-2].Longitude,
				sample.Latitude, sample.Longitude,
			)
			speedKmh = spatial.MpsToKmh(segM / (float64(dt) / 1000.0))
		}
	}
	m.emitEvent(models.EventTripProgress, models.TripProgress{
		TripID:         cand.ID,
		TotalDistanceM: cand.TotalDistanceM,
		ElapsedMs:      sample.Timestamp - cand.StartTime,
		PointCount:     len(cand.Route),
		SpeedKmh:       speedKmh,
	}, sample.Timestamp)
}

// handlePotentialEnd finalizes the trip once the stop has lasted long
// enough: normally when the trip covered real distance, forcibly after the
// long-stop timeout regardless of distance.
func (m *StateMachine) handlePotentialEnd(sample models.LocationSample) *models.CompletedTrip {
	m.appendRoute(sample)
	m.stopBuffer.Add(sample)
	if m.stopStartMs == 0 {
		m.stopStartMs = sample.Timestamp
	}
	stopMs := sample.Timestamp - m.stopStartMs

	if stopMs > m.cfg.EndStopDurationMs && m.candidate.TotalDistanceM > m.cfg.EndMinDistanceM {
		return m.finalize(models.TripStatusCompleted, "trip_completed")
	}
	if stopMs > m.cfg.ForceEndStopDurationMs {
		return m.finalize(models.TripStatusForceCompleted, "stop_timeout")
	}
	return nil
}

// ForceFinalize deterministically closes any in-flight candidate, used when
// the engine is stopped externally. An unconfirmed candidate is discarded;
// a confirmed trip is force-completed. Returns the completed trip, if any.
func (m *StateMachine) ForceFinalize() *models.CompletedTrip {
	switch m.state {
	case models.StatePotentialStart:
		m.discard("engine_stopped", m.lastRouteTimestamp())
		return nil
	case models.StateActive, models.StatePotentialEnd:
		return m.finalize(models.TripStatusForceCompleted, "engine_stopped")
	default:
		return nil
	}
}

// finalize turns the candidate into an immutable CompletedTrip, hands it to
// the caller, and returns the machine to Idle. The trip ends when its
// terminal stop began, not when the stop timeout fired.
func (m *StateMachine) finalize(status, reason string) *models.CompletedTrip {
	cand := m.candidate
	endMs := m.stopStartMs
	if endMs == 0 {
		endMs = m.lastRouteTimestamp()
	}

	analysis := m.analyzer.Analyze(cand.Route, cand.StartTime, endMs)
	confidence := cand.Confidence
	if analysis.Confidence > confidence {
		confidence = analysis.Confidence
	}

	lastPoint := cand.Route[len(cand.Route)-1]
	trip := models.CompletedTrip{
		ID:              cand.ID,
		StartTime:       cand.StartTime,
		EndTime:         endMs,
		DurationSeconds: (endMs - cand.StartTime) / 1000,
		StartLat:        cand.StartLocation.Latitude,
		StartLon:        cand.StartLocation.Longitude,
		EndLat:          lastPoint.Latitude,
		EndLon:          lastPoint.Longitude,
		Status:          status,
		TotalDistanceKm: analysis.TotalDistanceKm,
		AvgSpeedKmh:     analysis.AvgSpeedKmh,
		MaxSpeedKmh:     analysis.MaxSpeedKmh,
		QualityScore:    analysis.QualityScore,
		Confidence:      clamp01(confidence),
		MovementPattern: analysis.MovementPattern,
		PointCount:      analysis.PointCount,
		Route:           cand.Route,
	}

	m.candidate = nil
	m.stopBuffer.Clear()
	m.stopStartMs = 0
	m.transitionTo(models.StateIdle, reason, endMs)
	m.emitEvent(models.EventTripCompleted, trip, endMs)

	log.Printf("[StateMachine] Trip %s finalized: %.2f km, %ds, status=%s, confidence=%.2f",
		trip.ID, trip.TotalDistanceKm, trip.DurationSeconds, trip.Status, trip.Confidence)
	return &trip
}

// discard drops an unconfirmed candidate and returns to Idle.
func (m *StateMachine) discard(reason string, atMs int64) {
	payload := models.TripDiscarded{TripID: m.candidate.ID, Reason: reason}
	m.candidate = nil
	m.stopBuffer.Clear()
	m.stopStartMs = 0
	m.transitionTo(models.StateIdle, reason, atMs)
	m.emitEvent(models.EventTripDiscarded, payload, atMs)
	log.Printf("[StateMachine] Trip %s discarded: %s", payload.TripID, reason)
}

// appendRoute appends a sample to the candidate route and recomputes the
// running distance from the full route rather than accumulating
// incrementally, avoiding floating-point drift over long trips. When the
// route hits the cap it is thinned by dropping every other interior point.
func (m *StateMachine) appendRoute(sample models.LocationSample) {
	cand := m.candidate
	cand.Route = append(cand.Route, sample)
	if len(cand.Route) > m.cfg.MaxRoutePoints {
		cand.Route = downsampleRoute(cand.Route)
	}
	cand.TotalDistanceM = routeDistanceMeters(cand.Route)
}

// downsampleRoute halves a route by dropping every other interior point,
// preserving both endpoints.
func downsampleRoute(route []models.LocationSample) []models.LocationSample {
	out := make([]models.LocationSample, 0, len(route)/2+2)
	out = append(out, route[0])
	for i := 1; i < len(route)-1; i += 2 {
		out = append(out, route[i])
	}
	out = append(out, route[len(route)-1])
	return out
}

// transitionTo records the state change in the bounded audit ring and emits
// the generic state_changed event.
func (m *StateMachine) transitionTo(next models.TripState, reason string, atMs int64) {
	change := models.StateChange{
		Previous:  m.state,
		Next:      next,
		Reason:    reason,
		Timestamp: atMs,
	}
	if len(m.transitions) == m.cfg.TransitionLogSize {
		copy(m.transitions, m.transitions[1:])
		m.transitions = m.transitions[:len(m.transitions)-1]
	}
	m.transitions = append(m.transitions, change)

	m.state = next
	m.stateSince = atMs
	m.emitEvent(models.EventStateChanged, change, atMs)
	m.debugf("%s -> %s (%s)", change.Previous, change.Next, reason)
}

func (m *StateMachine) emitEvent(kind models.EventType, payload interface{}, atMs int64) {
	if m.emit == nil {
		return
	}
	m.emit(models.Event{Type: kind, Timestamp: atMs, Payload: payload})
}

func (m *StateMachine) lastRouteTimestamp() int64 {
	if m.candidate != nil && len(m.candidate.Route) > 0 {
		return m.candidate.Route[len(m.candidate.Route)-1].Timestamp
	}
	if latest, ok := m.analysis.Latest(); ok {
		return latest.Timestamp
	}
	return 0
}

func (m *StateMachine) debugf(format string, args ...interface{}) {
	if m.debug {
		log.Printf("[StateMachine] "+format, args...)
	}
}
