package detection

import "github.com/mfelden/tripwatch-backend-go/internal/models"

// SampleWindow is a fixed-capacity, append-only buffer of recent samples.
// Once capacity is exceeded the oldest entries are dropped, keeping
// per-sample analysis cost bounded regardless of trip length.
type SampleWindow struct {
	capacity int
	samples  []models.LocationSample
}

// NewSampleWindow creates a window holding at most capacity samples.
func NewSampleWindow(capacity int) *SampleWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleWindow{
		capacity: capacity,
		samples:  make([]models.LocationSample, 0, capacity),
	}
}

// Add appends a sample, evicting the oldest entry when full.
func (w *SampleWindow) Add(s models.LocationSample) {
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples = w.samples[:w.capacity-1]
	}
	w.samples = append(w.samples, s)
}

// Len returns the number of buffered samples.
func (w *SampleWindow) Len() int {
	return len(w.samples)
}

// Capacity returns the fixed maximum size.
func (w *SampleWindow) Capacity() int {
	return w.capacity
}

// Last returns a copy of the most recent n samples, oldest first. Fewer are
// returned if the window holds fewer.
func (w *SampleWindow) Last(n int) []models.LocationSample {
	if n > len(w.samples) {
		n = len(w.samples)
	}
	if n <= 0 {
		return nil
	}
	out := make([]models.LocationSample, n)
	copy(out, w.samples[len(w.samples)-n:])
	return out
}

// Latest returns the most recent sample, if any.
func (w *SampleWindow) Latest() (models.LocationSample, bool) {
	if len(w.samples) == 0 {
		return models.LocationSample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

// Oldest returns the least recent buffered sample, if any.
func (w *SampleWindow) Oldest() (models.LocationSample, bool) {
	if len(w.samples) == 0 {
		return models.LocationSample{}, false
	}
	return w.samples[0], true
}

// Clear drops all buffered samples.
func (w *SampleWindow) Clear() {
	w.samples = w.samples[:0]
}
