package events

import (
	"context"
	"encoding/json"

	kafka "github.com/segmentio/kafka-go"

	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
)

// KafkaAdapter publishes through github.com/segmentio/kafka-go. Each Publish
// builds a writer for the envelope's topic and closes it afterwards, since
// the adapter itself is topic-agnostic: topic selection lives on the envelope.
type KafkaAdapter struct {
	Brokers []string
	writerFor func(topic string) *kafka.Writer
}

// NewKafkaAdapter builds a KafkaAdapter dialing brokers.
func NewKafkaAdapter(brokers []string) *KafkaAdapter {
	a := &KafkaAdapter{Brokers: brokers}
	a.writerFor = func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	return a
}

func (a *KafkaAdapter) Name() string { return constant.AdapterKafka }

func (a *KafkaAdapter) IsAvailable() bool { return len(a.Brokers) > 0 }

func (a *KafkaAdapter) Publish(ctx context.Context, env DomainEventEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	writer := a.writerFor(env.Topic)
	defer writer.Close()

	msg := kafka.Message{Value: payload}
	if env.Key != "" {
		msg.Key = []byte(env.Key)
	}

	for k, v := range env.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return writer.WriteMessages(ctx, msg)
}

func (a *KafkaAdapter) HealthProbe(ctx context.Context) health.ProbeResult {
	if !a.IsAvailable() {
		return health.ProbeResult{Status: health.StatusDown, Details: map[string]any{"reason": "no brokers configured"}}
	}

	conn, err := kafka.DialContext(ctx, "tcp", a.Brokers[0])
	if err != nil {
		return health.ProbeResult{Status: health.StatusDown, Details: map[string]any{"error": err.Error()}}
	}
	defer conn.Close()

	return health.ProbeResult{Status: health.StatusUP}
}
