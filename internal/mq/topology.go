package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeNodes Exchange = "dagrun.nodes"
	ExchangeDLQ   Exchange = "dagrun.dlq"
)

// Queues.
const (
	QueueNodeDispatch Queue = "nodes.dispatch"
	QueueDLQNodes     Queue = "dlq.nodes"
)

// Routing keys.
const (
	RoutingKeyDispatch RoutingKey = "dispatch"
	RoutingKeyDLQNodes RoutingKey = "nodes"
)

// binding — очередь с аргументами и привязкой к обменнику.
type binding struct {
	queue      Queue
	exchange   Exchange
	routingKey RoutingKey
	args       amqp.Table
}

func topology() []binding {
	return []binding{
		{
			queue:      QueueNodeDispatch,
			exchange:   ExchangeNodes,
			routingKey: RoutingKeyDispatch,
			// битые сообщения (nack без requeue) уходят в DLQ
			args: amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQNodes),
			},
		},
		{
			queue:      QueueDLQNodes,
			exchange:   ExchangeDLQ,
			routingKey: RoutingKeyDLQNodes,
		},
	}
}

// SetupTopology объявляет обменники, очереди и привязки. Идемпотентно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeNodes, ExchangeDLQ} {
			if err := ch.ExchangeDeclare(string(ex), "direct", true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		for _, b := range topology() {
			if _, err := ch.QueueDeclare(string(b.queue), true, false, false, false, b.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  dagrun RabbitMQ topology:

    dagrun.nodes (direct)
    └── nodes.dispatch [routing: dispatch]
            Consumer: dagrun-worker
            DLQ: dlq.nodes

    dagrun.dlq (direct)
    └── dlq.nodes [routing: nodes]
            Manual processing
  `
}
