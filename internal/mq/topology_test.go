package mq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeTopologyChannel records every declaration.
type fakeTopologyChannel struct {
	exchanges map[string]string // name -> kind
	queues    map[string]bool   // name -> durable
	bindings  map[string]string // routing key -> exchange
}

func newFakeTopologyChannel() *fakeTopologyChannel {
	return &fakeTopologyChannel{
		exchanges: make(map[string]string),
		queues:    make(map[string]bool),
		bindings:  make(map[string]string),
	}
}

func (f *fakeTopologyChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.exchanges[name] = kind
	return nil
}

func (f *fakeTopologyChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.queues[name] = durable
	return amqp.Queue{Name: name}, nil
}

func (f *fakeTopologyChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings[key] = exchange
	return nil
}

func TestDeclareTopology(t *testing.T) {
	ch := newFakeTopologyChannel()
	if err := declareTopology(ch); err != nil {
		t.Fatalf("declare topology: %v", err)
	}

	if kind := ch.exchanges[string(ExchangePosts)]; kind != "direct" {
		t.Errorf("exchange %s kind = %q, want direct", ExchangePosts, kind)
	}
	if durable, ok := ch.queues[string(QueuePostEvents)]; !ok || !durable {
		t.Errorf("queue %s not declared durable", QueuePostEvents)
	}

	// Both outcomes must land in the events queue.
	for _, key := range []RoutingKey{RoutingKeySent, RoutingKeyFailed} {
		if ex := ch.bindings[string(key)]; ex != string(ExchangePosts) {
			t.Errorf("routing key %s bound to %q, want %s", key, ex, ExchangePosts)
		}
	}
}
