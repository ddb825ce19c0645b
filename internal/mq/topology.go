package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangePosts — единственный обменник системы.
const ExchangePosts Exchange = "postomat.posts"

// QueuePostEvents — очередь событий финализации для внешних потребителей.
const QueuePostEvents Queue = "posts.events"

// Routing keys.
const (
	RoutingKeySent   RoutingKey = "sent"
	RoutingKeyFailed RoutingKey = "failed"
)

// topologyChannel — подмножество методов amqp.Channel, нужное для
// объявления топологии.
type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// SetupTopology объявляет обменник и очередь событий. Идемпотентно:
// повторный вызов на существующей топологии безопасен.
func SetupTopology(conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}
	return declareTopology(ch)
}

func declareTopology(ch topologyChannel) error {
	err := ch.ExchangeDeclare(
		string(ExchangePosts), // name
		"direct",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangePosts, err)
	}

	_, err = ch.QueueDeclare(
		string(QueuePostEvents), // name
		true,                    // durable
		false,                   // delete when unused
		false,                   // exclusive
		false,                   // no-wait
		nil,                     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueuePostEvents, err)
	}

	// Очередь собирает оба исхода.
	for _, key := range []RoutingKey{RoutingKeySent, RoutingKeyFailed} {
		err := ch.QueueBind(
			string(QueuePostEvents), // queue name
			string(key),             // routing key
			string(ExchangePosts),   // exchange
			false,                   // no-wait
			nil,                     // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueuePostEvents, ExchangePosts, err)
		}
	}

	return nil
}
