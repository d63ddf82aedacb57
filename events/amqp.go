package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/firefly-oss/lib-common-domain/constant"
	"github.com/firefly-oss/lib-common-domain/health"
	"github.com/firefly-oss/lib-common-domain/logging"
)

// AMQPConnection is a hub that deals with AMQP connections: a lazy singleton
// that dials and opens a channel on first use.
type AMQPConnection struct {
	ConnectionStringSource string
	Exchange               string
	conn                   *amqp.Connection
	channel                *amqp.Channel
	Logger                 logging.Logger
}

// Connect establishes the singleton connection and channel.
func (c *AMQPConnection) Connect() error {
	if c.Logger == nil {
		c.Logger = &logging.NoneLogger{}
	}

	c.Logger.Info("connecting to amqp...")

	conn, err := amqp.Dial(c.ConnectionStringSource)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.channel = ch

	c.Logger.Info("connected to amqp")

	return nil
}

// GetChannel returns the channel, connecting lazily if necessary.
func (c *AMQPConnection) GetChannel() (*amqp.Channel, error) {
	if c.channel == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.channel, nil
}

// Healthy reports whether the underlying connection is still open.
func (c *AMQPConnection) Healthy() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

// AMQPAdapter publishes through github.com/rabbitmq/amqp091-go.
type AMQPAdapter struct {
	Connection *AMQPConnection
}

// NewAMQPAdapter wraps conn as an Adapter.
func NewAMQPAdapter(conn *AMQPConnection) *AMQPAdapter {
	return &AMQPAdapter{Connection: conn}
}

func (a *AMQPAdapter) Name() string { return constant.AdapterAMQP }

func (a *AMQPAdapter) IsAvailable() bool { return a.Connection != nil }

func (a *AMQPAdapter) Publish(ctx context.Context, env DomainEventEnvelope) error {
	ch, err := a.Connection.GetChannel()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	headers := amqp.Table{}
	for k, v := range env.Headers {
		headers[k] = v
	}

	return ch.PublishWithContext(
		ctx,
		a.Connection.Exchange,
		routingKey(env),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
			Headers:     headers,
			Type:        env.Type,
		},
	)
}

func routingKey(env DomainEventEnvelope) string {
	if env.Key != "" {
		return env.Key
	}

	return env.Topic
}

func (a *AMQPAdapter) HealthProbe(context.Context) health.ProbeResult {
	if a.Connection == nil || !a.Connection.Healthy() {
		return health.ProbeResult{Status: health.StatusDown}
	}

	return health.ProbeResult{Status: health.StatusUP}
}
