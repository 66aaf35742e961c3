package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckassembly/brelth-AES/internal/config"
	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/internal/websocket"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

// nullPublisher satisfies sim.Publisher for API tests
type nullPublisher struct {
	mu   sync.Mutex
	sent int64
}

func (p *nullPublisher) Publish(r *sim.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent++
}

func (p *nullPublisher) Pump() {}

func (p *nullPublisher) Shutdown(deadline time.Duration) int { return 0 }

func (p *nullPublisher) MessagesSent() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// startTestScheduler runs a small simulation until it has published its first
// snapshot
func startTestScheduler(t *testing.T) *sim.Scheduler {
	t.Helper()

	simCfg := config.SimulationConfig{
		NumAircraft:        2,
		MessageIntervalMin: 1,
		MessageIntervalMax: 1,
	}
	publisher := &nullPublisher{}
	fleet := sim.NewFleet(simCfg, config.AircraftTypesConfig{JetRatio: 1.0}, rand.New(rand.NewSource(1)), logger.Nop())
	emitter := sim.NewEmitter(simCfg, rand.New(rand.NewSource(2)), publisher)
	scheduler := sim.NewScheduler(fleet, emitter, publisher, 0, logger.Nop())

	done := make(chan error, 1)
	go func() { done <- scheduler.Run(context.Background()) }()
	t.Cleanup(func() {
		scheduler.Stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("scheduler did not stop")
		}
	})

	require.Eventually(t, func() bool {
		return len(scheduler.Snapshot()) == 2
	}, 2*time.Second, 20*time.Millisecond)

	return scheduler
}

func newTestServer(t *testing.T, scheduler *sim.Scheduler) *httptest.Server {
	t.Helper()
	router := NewRouter(scheduler, nil, websocket.NewServer(logger.Nop()), logger.Nop())
	server := httptest.NewServer(router.Routes())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGetFleet(t *testing.T) {
	scheduler := startTestScheduler(t)
	server := newTestServer(t, scheduler)

	var fleet FleetResponse
	status := getJSON(t, server.URL+"/api/v1/aircraft", &fleet)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, fleet.Count)
	require.Len(t, fleet.Aircraft, 2)
	assert.Regexp(t, `^[0-9A-F]{6}$`, fleet.Aircraft[0].ICAOAddress)
}

func TestGetAircraftDetail(t *testing.T) {
	scheduler := startTestScheduler(t)
	server := newTestServer(t, scheduler)

	icao := scheduler.Snapshot()[0].ICAOAddress

	var detail AircraftDetailResponse
	status := getJSON(t, server.URL+"/api/v1/aircraft/"+icao, &detail)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, icao, detail.ICAOAddress)
	// Jets cruise well above sea level, so static pressure is below P0
	assert.Greater(t, detail.PressureHPA, 0.0)
	assert.Less(t, detail.PressureHPA, 1013.25)
	assert.GreaterOrEqual(t, detail.MagneticHeading, 0.0)
	assert.Less(t, detail.MagneticHeading, 360.0)
}

func TestGetAircraftNotFound(t *testing.T) {
	scheduler := startTestScheduler(t)
	server := newTestServer(t, scheduler)

	var body map[string]string
	status := getJSON(t, server.URL+"/api/v1/aircraft/ZZZZZZ", &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "error")
}

func TestGetStatus(t *testing.T) {
	scheduler := startTestScheduler(t)
	server := newTestServer(t, scheduler)

	var status StatusResponse
	code := getJSON(t, server.URL+"/api/v1/status", &status)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, status.Stats.Aircraft)
}

func TestHealthz(t *testing.T) {
	scheduler := startTestScheduler(t)
	server := newTestServer(t, scheduler)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
