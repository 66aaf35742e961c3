package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

func startTestFeed(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()

	server := NewServer(logger.Nop())
	go server.Run()

	httpServer := httptest.NewServer(http.HandlerFunc(server.HandleConnection))
	t.Cleanup(httpServer.Close)

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return server.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	return server, conn
}

func TestFeedBroadcastsReports(t *testing.T) {
	server, conn := startTestFeed(t)
	feed := NewFeed(server)

	report := &sim.Report{
		ICAOAddress:  "ABC123",
		Callsign:     "UAL1234",
		Latitude:     43.123456,
		Longitude:    -79.654321,
		Altitude:     35000,
		GroundSpeed:  450,
		Heading:      270,
		Squawk:       "1200",
		AircraftType: "jet",
	}
	feed.Publish(report)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string     `json:"type"`
		Data sim.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeReport, msg.Type)
	assert.Equal(t, *report, msg.Data)
}

func TestFeedBroadcastsStats(t *testing.T) {
	server, conn := startTestFeed(t)
	feed := NewFeed(server)

	feed.PublishStats(sim.StatsSnapshot{Aircraft: 75, MessagesTotal: 1234})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string            `json:"type"`
		Data sim.StatsSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeStats, msg.Type)
	assert.Equal(t, 75, msg.Data.Aircraft)
}

func TestBroadcastWithoutClients(t *testing.T) {
	server := NewServer(logger.Nop())
	go server.Run()

	// Must not block or panic with nobody listening
	for i := 0; i < 10; i++ {
		server.Broadcast(&Message{Type: MessageTypeStats, Data: i})
	}
	assert.Equal(t, 0, server.ClientCount())
}
