package detection

import (
	"github.com/mfelden/tripwatch-backend-go/internal/models"
	"github.com/mfelden/tripwatch-backend-go/internal/spatial"
)

const testBaseTs = int64(1700000000000)

// routeBuilder fabricates a plausible sample stream by walking from a fixed
// origin. Each call advances position and clock and returns the new sample.
type routeBuilder struct {
	lat, lon float64
	ts       int64
}

func newRouteBuilder() *routeBuilder {
	return &routeBuilder{lat: 59.3293, lon: 18.0686, ts: testBaseTs}
}

// move advances distM meters along the given bearing after dtMs and returns
// the resulting sample.
func (b *routeBuilder) move(bearing, distM float64, dtMs int64, speedMps float64) models.LocationSample {
	b.lat, b.lon = spatial.DestinationPoint(b.lat, b.lon, bearing, distM)
	b.ts += dtMs
	return models.LocationSample{
		Latitude:  b.lat,
		Longitude: b.lon,
		Accuracy:  10,
		Speed:     speedMps,
		Heading:   bearing,
		Timestamp: b.ts,
	}
}

// stay produces a sample at the current position after dtMs.
func (b *routeBuilder) stay(dtMs int64) models.LocationSample {
	return b.move(0, 0, dtMs, 0)
}

// eventRecorder collects emitted events for assertions.
type eventRecorder struct {
	events []models.Event
}

func (r *eventRecorder) record(e models.Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) count(kind models.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == kind {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(kind models.EventType) (models.Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == kind {
			return r.events[i], true
		}
	}
	return models.Event{}, false
}

// driveToPotentialStart feeds steady driving-speed movement until the
// machine opens a candidate.
func driveToPotentialStart(m *StateMachine, b *routeBuilder) {
	for i := 0; i < 3; i++ {
		m.Process(b.move(90, 150, 10000, 5.56))
	}
}

// driveToActive extends the movement until the candidate is confirmed.
func driveToActive(m *StateMachine, b *routeBuilder) {
	driveToPotentialStart(m, b)
	for i := 0; i < 10 && m.State() != models.StateActive; i++ {
		m.Process(b.move(90, 150, 10000, 5.56))
	}
}
