package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/blckassembly/brelth-AES/internal/config"
	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

// Producer publishes position reports to the message bus, keyed by ICAO
// address so all of one aircraft's reports land on the same partition and
// keep their order there. When the
// bus cannot be constructed the producer runs in null mode: publishes become
// no-ops and the simulation continues without it.
type Producer struct {
	bus    Bus
	topic  string
	logger *logger.Logger

	messagesSent atomic.Int64
	closed       atomic.Bool
}

// NewProducer connects to the bus described by cfg and provisions the target
// topic. Construction failures are logged and yield a null-mode producer.
func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	producerLogger := log.Named("kafka")

	bus, err := newConfluentBus(cfg)
	if err != nil {
		producerLogger.Error("Failed to set up Kafka producer, running without publishing",
			logger.Error(err),
			logger.String("bootstrap_servers", cfg.BootstrapServers),
		)
		return NewProducerWithBus(nil, cfg.Topic, log)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := EnsureTopic(ctx, cfg, producerLogger); err != nil {
		// The producer still publishes to the topic; the broker may
		// auto-create it or the next metadata refresh will find it.
		producerLogger.Error("Topic provisioning failed", logger.Error(err), logger.String("topic", cfg.Topic))
	}

	producerLogger.Info("Kafka producer configured",
		logger.String("bootstrap_servers", cfg.BootstrapServers),
		logger.String("topic", cfg.Topic),
	)
	return NewProducerWithBus(bus, cfg.Topic, log)
}

// NewProducerWithBus creates a producer over an existing bus. A nil bus yields
// a null-mode producer.
func NewProducerWithBus(bus Bus, topic string, log *logger.Logger) *Producer {
	return &Producer{
		bus:    bus,
		topic:  topic,
		logger: log.Named("kafka"),
	}
}

// Publish encodes the report and enqueues it keyed by ICAO address. Enqueue
// failures (including a full client queue) drop the report and never fail the
// tick.
func (p *Producer) Publish(r *sim.Report) {
	if p.bus == nil || p.closed.Load() {
		return
	}

	value, err := r.Encode()
	if err != nil {
		p.logger.Error("Failed to encode report", logger.Error(err), logger.String("icao", r.ICAOAddress))
		return
	}

	if err := p.bus.Produce(p.topic, []byte(r.ICAOAddress), value); err != nil {
		p.logger.Error("Failed to publish message", logger.Error(err), logger.String("icao", r.ICAOAddress))
		return
	}

	p.messagesSent.Add(1)
}

// Pump drains pending delivery acknowledgements without blocking. Delivery
// failures are logged; the bus client has already exhausted its retries.
func (p *Producer) Pump() {
	if p.bus == nil {
		return
	}
	for {
		ack := p.bus.Poll(0)
		if ack == nil {
			return
		}
		if ack.Err != nil {
			p.logger.Error("Message delivery failed",
				logger.Error(ack.Err),
				logger.String("key", string(ack.Key)),
			)
		}
	}
}

// Shutdown flushes buffered messages, waiting at most deadline, and closes the
// bus. It returns the number of messages discarded unacknowledged. No further
// publishes are permitted.
func (p *Producer) Shutdown(deadline time.Duration) int {
	if p.closed.Swap(true) || p.bus == nil {
		return 0
	}

	remaining := p.bus.Flush(deadline)
	p.bus.Close()
	return remaining
}

// MessagesSent returns the number of reports successfully enqueued
func (p *Producer) MessagesSent() int64 {
	return p.messagesSent.Load()
}
