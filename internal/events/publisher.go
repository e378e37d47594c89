package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrJamesThe3rd/innkeeper/internal/reservation"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends reservation lifecycle events to a durable RabbitMQ queue.
// An amqp channel is not safe for concurrent publishing, so sends are serialized.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
}

func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("declaring queue %q: %w", queue, err)
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

type message struct {
	Type          reservation.EventType `json:"type"`
	ReservationID int64                 `json:"reservation_id"`
	RoomID        int64                 `json:"room_id"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

func encode(ev reservation.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(message{
		Type:          ev.Type,
		ReservationID: ev.ReservationID,
		RoomID:        ev.RoomID,
		OccurredAt:    ev.OccurredAt.UTC(),
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshaling event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev reservation.Event) error {
	msg, err := encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Type, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		return fmt.Errorf("closing channel: %w", err)
	}

	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}
