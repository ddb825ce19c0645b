package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип события в очереди.
type MessageType string

// Типы событий.
const (
	MessageTypePostSent   MessageType = "post.sent"
	MessageTypePostFailed MessageType = "post.failed"
)

// Publisher публикует события финализации постов.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — конверт события.
type Message struct {
	// ID — уникальный идентификатор события.
	ID string `json:"id"`

	// Type — тип события.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// PostEventPayload — payload событий post.sent и post.failed.
type PostEventPayload struct {
	PostID uuid.UUID `json:"post_id"`
	Reason string    `json:"reason,omitempty"`
}

func (p *Publisher) publish(ctx context.Context, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch := p.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	err = ch.PublishWithContext(
		ctx,
		string(ExchangePosts),
		string(routingKey),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // событие переживёт рестарт RabbitMQ
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", ExchangePosts, routingKey, err)
	}

	p.logger.Debug("published event",
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// PublishPostSent публикует событие об успешно доставленном посте.
func (p *Publisher) PublishPostSent(ctx context.Context, postID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypePostSent,
		Payload:   PostEventPayload{PostID: postID},
		Timestamp: time.Now(),
	}
	return p.publish(ctx, RoutingKeySent, msg)
}

// PublishPostFailed публикует событие о посте, доставленном не во все цели.
func (p *Publisher) PublishPostFailed(ctx context.Context, postID uuid.UUID, reason string) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypePostFailed,
		Payload:   PostEventPayload{PostID: postID, Reason: reason},
		Timestamp: time.Now(),
	}
	return p.publish(ctx, RoutingKeyFailed, msg)
}
