package kafka

import (
	"context"
	"fmt"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/blckassembly/brelth-AES/internal/config"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

const (
	clientID      = "adsb-simulator"
	numPartitions = 3
	replication   = 1
)

// Ack is one delivery acknowledgement drained from the bus
type Ack struct {
	Key []byte
	Err error
}

// Bus is the producer-side surface of a keyed, partitioned message bus.
// Produce must be non-blocking: a full client queue is an error, never a
// stall. Delivery acknowledgements are drained with Poll.
type Bus interface {
	Produce(topic string, key, value []byte) error
	// Poll returns the next pending acknowledgement, or nil when none is
	// ready within the timeout
	Poll(timeout time.Duration) *Ack
	// Flush blocks until all buffered messages are acknowledged or the
	// timeout elapses; it returns the number still outstanding
	Flush(timeout time.Duration) int
	Close()
}

// confluentBus adapts a confluent-kafka-go producer to the Bus interface
type confluentBus struct {
	producer *ck.Producer
}

// newConfluentBus builds the Kafka producer client. The tunables mirror the
// reference producer; librdkafka has no buffer.memory, so
// queue.buffering.max.kbytes bounds the same 32 MiB pool.
func newConfluentBus(cfg config.KafkaConfig) (*confluentBus, error) {
	producer, err := ck.NewProducer(&ck.ConfigMap{
		"bootstrap.servers":          cfg.BootstrapServers,
		"client.id":                  clientID,
		"acks":                       "all",
		"retries":                    3,
		"batch.size":                 16384,
		"linger.ms":                  10,
		"queue.buffering.max.kbytes": 32768,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &confluentBus{producer: producer}, nil
}

func (b *confluentBus) Produce(topic string, key, value []byte) error {
	return b.producer.Produce(&ck.Message{
		TopicPartition: ck.TopicPartition{Topic: &topic, Partition: ck.PartitionAny},
		Key:            key,
		Value:          value,
	}, nil)
}

func (b *confluentBus) Poll(timeout time.Duration) *Ack {
	// The producer delivers acknowledgements on its Events channel
	var event ck.Event
	select {
	case event = <-b.producer.Events():
	default:
		if timeout <= 0 {
			return nil
		}
		select {
		case event = <-b.producer.Events():
		case <-time.After(timeout):
			return nil
		}
	}
	if event == nil {
		return nil
	}
	switch ev := event.(type) {
	case *ck.Message:
		var err error
		if ev.TopicPartition.Error != nil {
			err = ev.TopicPartition.Error
		}
		return &Ack{Key: ev.Key, Err: err}
	case ck.Error:
		return &Ack{Err: ev}
	default:
		return &Ack{}
	}
}

func (b *confluentBus) Flush(timeout time.Duration) int {
	return b.producer.Flush(int(timeout.Milliseconds()))
}

func (b *confluentBus) Close() {
	b.producer.Close()
}

// EnsureTopic creates the target topic with the fixed partition layout.
// An already existing topic counts as success; any other failure is returned
// for the caller to log and ignore, since the producer will publish to the
// topic regardless and the client refreshes metadata on its own.
func EnsureTopic(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) error {
	admin, err := ck.NewAdminClient(&ck.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer admin.Close()

	results, err := admin.CreateTopics(ctx, []ck.TopicSpecification{{
		Topic:             cfg.Topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replication,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", cfg.Topic, err)
	}

	for _, result := range results {
		code := result.Error.Code()
		switch code {
		case ck.ErrNoError:
			log.Info("Topic created", logger.String("topic", result.Topic))
		case ck.ErrTopicAlreadyExists:
			log.Info("Topic already exists", logger.String("topic", result.Topic))
		default:
			return fmt.Errorf("failed to create topic %s: %s", result.Topic, result.Error)
		}
	}
	return nil
}
