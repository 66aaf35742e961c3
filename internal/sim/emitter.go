package sim

import (
	"math/rand"
	"time"

	"github.com/blckassembly/brelth-AES/internal/config"
)

// ReportSink consumes emitted position reports. Sinks must not block the tick
// goroutine.
type ReportSink interface {
	Publish(r *Report)
}

// Publisher is the bus-facing sink driven by the scheduler: it is pumped every
// tick and drained on shutdown.
type Publisher interface {
	ReportSink
	// Pump drives delivery acknowledgements without blocking
	Pump()
	// Shutdown flushes buffered messages, waiting at most deadline. It
	// returns the number of messages still unacknowledged when the deadline
	// expired. No publishes are permitted afterwards.
	Shutdown(deadline time.Duration) int
	// MessagesSent returns the number of reports successfully enqueued
	MessagesSent() int64
}

// Emitter decides, per aircraft per tick, whether to publish a position
// report. Each tick draws U[0,1) < 1/U[min,max].
//
// Read as seconds-between-messages the interval bounds overshoot by roughly
// the tick rate: at 10 Hz the expected rate is about 10*E[1/I] messages per
// aircraft per second. Downstream consumers are tuned for that rate; see
// DESIGN.md before changing the draw.
type Emitter struct {
	intervalMin float64
	intervalMax float64
	rng         *rand.Rand
	sinks       []ReportSink
	now         func() time.Time
}

// NewEmitter creates an emitter publishing to the given sinks
func NewEmitter(cfg config.SimulationConfig, rng *rand.Rand, sinks ...ReportSink) *Emitter {
	return &Emitter{
		intervalMin: cfg.MessageIntervalMin,
		intervalMax: cfg.MessageIntervalMax,
		rng:         rng,
		sinks:       sinks,
		now:         time.Now,
	}
}

// MaybePublish runs the per-tick Bernoulli test for one aircraft and, when it
// fires, snapshots a report at the current wall clock and hands it to every
// sink.
func (e *Emitter) MaybePublish(a *Aircraft) bool {
	interval := e.intervalMin + e.rng.Float64()*(e.intervalMax-e.intervalMin)
	if e.rng.Float64() >= 1.0/interval {
		return false
	}

	report := a.Report(e.now())
	for _, sink := range e.sinks {
		sink.Publish(report)
	}
	return true
}
