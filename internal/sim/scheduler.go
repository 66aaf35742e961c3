package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blckassembly/brelth-AES/pkg/logger"
)

const (
	tickInterval  = 100 * time.Millisecond // Nominal 10 Hz
	statsInterval = 30 * time.Second
	flushDeadline = 10 * time.Second
)

// StatsSnapshot is the heartbeat payload emitted every stats interval
type StatsSnapshot struct {
	Aircraft       int     `json:"aircraft"`
	MessagesPerSec float64 `json:"messages_per_sec"`
	MessagesTotal  int64   `json:"messages_total"`
	Emergencies    int     `json:"emergencies"`
	Conflicts      int     `json:"conflicts"`
	UptimeSecs     float64 `json:"uptime_secs"`
}

// StatsSink consumes heartbeat statistics
type StatsSink interface {
	PublishStats(s StatsSnapshot)
}

// Scheduler runs the master tick loop: advance the fleet, sample the emitter
// for every aircraft, scan separation, sample emergencies, pump the publisher,
// and emit a statistics heartbeat. All kernel mutation happens on the Run
// goroutine; readers get value snapshots.
type Scheduler struct {
	fleet         *Fleet
	emitter       *Emitter
	publisher     Publisher
	emergencyFreq float64
	logger        *logger.Logger

	statsSinks []StatsSink

	stopOnce sync.Once
	stopCh   chan struct{}

	mu        sync.RWMutex
	snapshot  []AircraftSnapshot
	lastStats StatsSnapshot
	startTime time.Time
}

// NewScheduler creates a scheduler over the given kernel components
func NewScheduler(fleet *Fleet, emitter *Emitter, publisher Publisher, emergencyFreq float64, log *logger.Logger, statsSinks ...StatsSink) *Scheduler {
	return &Scheduler{
		fleet:         fleet,
		emitter:       emitter,
		publisher:     publisher,
		emergencyFreq: emergencyFreq,
		logger:        log.Named("scheduler"),
		statsSinks:    statsSinks,
		stopCh:        make(chan struct{}),
	}
}

// Stop latches shutdown. The in-flight tick completes; Run then drains the
// publisher and returns.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Run drives the tick loop until the context is cancelled or Stop is called.
// It returns nil on a clean shutdown and the causing error when the loop died.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	s.logger.Info("Starting simulation loop",
		logger.Duration("tick_interval", tickInterval),
		logger.Int("aircraft", len(s.fleet.Aircraft())),
	)

	now := time.Now()
	s.mu.Lock()
	s.startTime = now
	s.mu.Unlock()
	lastTick := now
	lastStats := now

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulation loop panic: %v", r)
			s.logger.Error("Simulation loop failed", logger.Any("panic", r))
		}
		s.shutdown()
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case now = <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now

			s.tick(dt)

			if now.Sub(lastStats) >= statsInterval {
				lastStats = now
				s.heartbeat()
			}
		}
	}
}

// tick runs one full pass over the kernel
func (s *Scheduler) tick(dt float64) {
	s.fleet.AdvanceAll(dt)

	for _, a := range s.fleet.Aircraft() {
		s.emitter.MaybePublish(a)
	}

	s.fleet.SeparationScan()
	s.fleet.SampleEmergencies(s.emergencyFreq)

	s.publisher.Pump()

	snap := s.fleet.Snapshot()
	stats := s.collectStats(time.Now())
	s.mu.Lock()
	s.snapshot = snap
	s.lastStats = stats
	s.mu.Unlock()
}

// heartbeat logs the most recent statistics and forwards them to the stats
// sinks
func (s *Scheduler) heartbeat() {
	s.mu.RLock()
	stats := s.lastStats
	s.mu.RUnlock()

	s.logger.Info("Stats",
		logger.Int("aircraft", stats.Aircraft),
		logger.Float64("messages_per_sec", stats.MessagesPerSec),
		logger.Int64("messages_total", stats.MessagesTotal),
		logger.Int("emergencies", stats.Emergencies),
		logger.Int("conflicts", stats.Conflicts),
		logger.Float64("uptime_secs", stats.UptimeSecs),
	)

	for _, sink := range s.statsSinks {
		sink.PublishStats(stats)
	}
}

func (s *Scheduler) collectStats(now time.Time) StatsSnapshot {
	fleetStats := s.fleet.Stats()

	s.mu.RLock()
	uptime := now.Sub(s.startTime).Seconds()
	s.mu.RUnlock()

	sent := s.publisher.MessagesSent()
	perSec := 0.0
	if uptime > 0 {
		perSec = float64(sent) / uptime
	}

	return StatsSnapshot{
		Aircraft:       fleetStats.Aircraft,
		MessagesPerSec: perSec,
		MessagesTotal:  sent,
		Emergencies:    fleetStats.Emergencies,
		Conflicts:      fleetStats.Conflicts,
		UptimeSecs:     uptime,
	}
}

// shutdown drains the publisher and logs the final statistics
func (s *Scheduler) shutdown() {
	s.logger.Info("Flushing remaining messages", logger.Duration("deadline", flushDeadline))
	remaining := s.publisher.Shutdown(flushDeadline)
	if remaining > 0 {
		s.logger.Warn("Discarded unacknowledged messages at shutdown", logger.Int("remaining", remaining))
	}

	stats := s.collectStats(time.Now())
	s.logger.Info("Simulation stopped",
		logger.Float64("uptime_secs", stats.UptimeSecs),
		logger.Int64("messages_total", stats.MessagesTotal),
	)
}

// Snapshot returns the most recent per-tick fleet snapshot
func (s *Scheduler) Snapshot() []AircraftSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Stats returns the statistics collected on the most recent tick
func (s *Scheduler) Stats() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStats
}
