package websocket

import (
	"github.com/blckassembly/brelth-AES/internal/sim"
)

// Feed adapts the broadcast server to the simulation's report and stats sink
// interfaces, streaming the live traffic to connected consumers.
type Feed struct {
	server *Server
}

// NewFeed creates a feed over the given server
func NewFeed(server *Server) *Feed {
	return &Feed{server: server}
}

// Publish broadcasts one position report
func (f *Feed) Publish(r *sim.Report) {
	f.server.Broadcast(&Message{Type: MessageTypeReport, Data: r})
}

// PublishStats broadcasts a statistics heartbeat
func (f *Feed) PublishStats(s sim.StatsSnapshot) {
	f.server.Broadcast(&Message{Type: MessageTypeStats, Data: s})
}
