package detection

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mfelden/tripwatch-backend-go/internal/models"
)

// TripSink receives finalized trips. Persistence lives behind this
// boundary; the engine itself does no I/O while processing a sample.
type TripSink interface {
	SaveTrip(ctx context.Context, trip models.CompletedTrip) error
}

// Subscription identifies one registered event listener so it can be
// removed again.
type Subscription struct {
	id int
}

// Engine is the push-based trip detection pipeline: quality filter ->
// movement analysis -> state machine. It is explicitly constructed and
// passed by reference; there is no package-level instance. Samples are
// processed strictly one at a time.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	filter  *QualityFilter
	machine *StateMachine
	sink    TripSink

	raw          *SampleWindow
	lastAccepted *models.LocationSample

	history []models.CompletedTrip
	subs    map[int]func(models.Event)
	nextSub int

	running bool
	debug   bool
	now     func() int64
}

// NewEngine creates a stopped engine with the given thresholds and trip
// sink. A nil sink is allowed; completed trips are then only kept in the
// in-memory history ring.
func NewEngine(cfg Config, sink TripSink) *Engine {
	e := &Engine{
		cfg:  cfg,
		sink: sink,
		raw:  NewSampleWindow(cfg.RawWindowSize),
		subs: make(map[int]func(models.Event)),
		now:  func() int64 { return time.Now().UnixMilli() },
	}
	e.filter = NewQualityFilter(cfg)
	e.machine = NewStateMachine(cfg, e.dispatch)
	return e
}

// Start begins consuming samples. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	log.Printf("[Engine] Started")
}

// Stop halts consumption and deterministically force-finalizes any
// in-flight candidate rather than leaving it dangling.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	trip := e.machine.ForceFinalize()
	if trip != nil {
		e.recordTrip(*trip)
	}
	e.mu.Unlock()

	if trip != nil {
		e.persist(*trip)
	}
	log.Printf("[Engine] Stopped")
}

// SetDebugMode toggles per-sample diagnostic logging.
func (e *Engine) SetDebugMode(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.debug = enabled
	e.machine.SetDebug(enabled)
	log.Printf("[Engine] Debug mode: %v", enabled)
}

// SubmitSample pushes one raw sample through the pipeline. Rejected samples
// are dropped without error; a sample that finalizes a trip hands the
// record to the sink after processing completes.
func (e *Engine) SubmitSample(sample models.LocationSample) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	ok, reason := e.filter.Accept(sample, e.lastAccepted, e.now())
	if !ok {
		if e.debug {
			log.Printf("[Engine] Sample rejected: %s (lat=%.6f lon=%.6f acc=%.1f)",
				reason, sample.Latitude, sample.Longitude, sample.Accuracy)
		}
		e.mu.Unlock()
		return
	}

	e.raw.Add(sample)
	accepted := sample
	e.lastAccepted = &accepted

	trip := e.machine.Process(sample)
	if trip != nil {
		e.recordTrip(*trip)
	}
	e.mu.Unlock()

	if trip != nil {
		e.persist(*trip)
	}
}

// Subscribe registers a listener for all lifecycle events. Delivery is
// synchronous and isolated: a panicking listener is recovered and logged
// without affecting the pipeline or other listeners. Listeners run during
// sample processing and must not call back into the engine.
func (e *Engine) Subscribe(fn func(models.Event)) *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSub++
	e.subs[e.nextSub] = fn
	return &Subscription{id: e.nextSub}
}

// Unsubscribe removes a previously registered listener.
func (e *Engine) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, sub.id)
}

// Status reports the engine state for diagnostics.
func (e *Engine) Status() models.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	nowMs := e.now()
	sizes := e.machine.BufferSizes()
	sizes["raw"] = e.raw.Len()
	sizes["history"] = len(e.history)

	status := models.EngineStatus{
		State:       e.machine.State(),
		IsActive:    e.running,
		DebugMode:   e.debug,
		BufferSizes: sizes,
		ActiveTrip:  e.machine.Snapshot(nowMs),
	}
	if since := e.machine.StateSince(); since > 0 {
		status.TimeInStateMs = nowMs - since
	}
	return status
}

// History returns up to limit most recently completed trips, newest first.
// limit <= 0 returns the full ring.
func (e *Engine) History(limit int) []models.CompletedTrip {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.CompletedTrip, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// Transitions returns the bounded state transition audit log, oldest first.
func (e *Engine) Transitions() []models.StateChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Transitions()
}

// recordTrip appends to the bounded history ring. Caller holds the lock.
func (e *Engine) recordTrip(trip models.CompletedTrip) {
	if len(e.history) == e.cfg.HistorySize {
		copy(e.history, e.history[1:])
		e.history = e.history[:len(e.history)-1]
	}
	e.history = append(e.history, trip)
}

// persist hands a finalized trip to the sink, outside the processing lock.
func (e *Engine) persist(trip models.CompletedTrip) {
	if e.sink == nil {
		return
	}
	if err := e.sink.SaveTrip(context.Background(), trip); err != nil {
		log.Printf("[Engine] Failed to persist trip %s: %v", trip.ID, err)
	}
}

// dispatch fans an event out to all subscribers. Each invocation is
// isolated so one faulty observer cannot corrupt engine state.
func (e *Engine) dispatch(event models.Event) {
	for id, fn := range e.subs {
		e.safeNotify(id, fn, event)
	}
}

func (e *Engine) safeNotify(id int, fn func(models.Event), event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] Subscriber %d panicked on %s event: %v", id, event.Type, r)
		}
	}()
	fn(event)
}
