package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckassembly/brelth-AES/internal/config"
)

// captureSink records every report it receives
type captureSink struct {
	reports []*Report
}

func (s *captureSink) Publish(r *Report) {
	s.reports = append(s.reports, r)
}

func TestEmitterAlwaysFiresAtUnitInterval(t *testing.T) {
	// With both interval bounds at 1 the Bernoulli test is U[0,1) < 1
	sink := &captureSink{}
	e := NewEmitter(
		config.SimulationConfig{MessageIntervalMin: 1, MessageIntervalMax: 1},
		rand.New(rand.NewSource(1)),
		sink,
	)

	a := newTestAircraft(t, CategoryJet, 1)
	for i := 0; i < 50; i++ {
		assert.True(t, e.MaybePublish(a))
	}
	assert.Len(t, sink.reports, 50)
}

func TestEmitterRateTracksIntervalDraw(t *testing.T) {
	// With I ~ U[2,4] the per-tick fire probability is E[1/I] ~ 0.347
	sink := &captureSink{}
	e := NewEmitter(
		config.SimulationConfig{MessageIntervalMin: 2, MessageIntervalMax: 4},
		rand.New(rand.NewSource(7)),
		sink,
	)

	a := newTestAircraft(t, CategoryJet, 2)
	const trials = 10000
	for i := 0; i < trials; i++ {
		e.MaybePublish(a)
	}

	rate := float64(len(sink.reports)) / trials
	assert.InDelta(t, 0.347, rate, 0.03)
}

func TestEmitterFansOutToAllSinks(t *testing.T) {
	sink1 := &captureSink{}
	sink2 := &captureSink{}
	e := NewEmitter(
		config.SimulationConfig{MessageIntervalMin: 1, MessageIntervalMax: 1},
		rand.New(rand.NewSource(3)),
		sink1, sink2,
	)

	a := newTestAircraft(t, CategoryProp, 3)
	require.True(t, e.MaybePublish(a))

	require.Len(t, sink1.reports, 1)
	require.Len(t, sink2.reports, 1)
	// Both sinks see the same snapshot
	assert.Same(t, sink1.reports[0], sink2.reports[0])
	assert.Equal(t, a.ICAO(), sink1.reports[0].ICAOAddress)
}

func TestEmitterStampsCurrentTime(t *testing.T) {
	sink := &captureSink{}
	e := NewEmitter(
		config.SimulationConfig{MessageIntervalMin: 1, MessageIntervalMax: 1},
		rand.New(rand.NewSource(4)),
		sink,
	)
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return frozen }

	a := newTestAircraft(t, CategoryJet, 4)
	require.True(t, e.MaybePublish(a))
	assert.Equal(t, FormatTimestamp(frozen), sink.reports[0].Timestamp)
}
