// Package service holds the background services that run next to a venue
// session.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/venue-seat-allocator/internal/queue"
	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

// Publisher forwards venue events to a RabbitMQ queue. Observe never
// blocks: events are buffered and published by Run, and dropped when the
// buffer is full.
type Publisher struct {
	url   string
	queue string
	log   zerolog.Logger

	events  chan queue.SeatEvent
	dropped atomic.Uint64

	// send delivers one encoded event; replaced in tests.
	send func(ctx context.Context, body []byte) error

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for the given broker and queue with room
// for buffer pending events.
func NewPublisher(url, queueName string, buffer int, log zerolog.Logger) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	p := &Publisher{
		url:    url,
		queue:  queueName,
		log:    log,
		events: make(chan queue.SeatEvent, buffer),
	}
	p.send = p.publish
	return p
}

// Observe implements venue.Observer.
func (p *Publisher) Observe(ev venue.Event) {
	select {
	case p.events <- queue.NewSeatEvent(ev, time.Now()):
	default:
		n := p.dropped.Add(1)
		p.log.Warn().Str("kind", string(ev.Kind)).Uint64("dropped", n).Msg("rabbitmq: event buffer full, event dropped")
	}
}

// Dropped returns the number of events discarded because the buffer was
// full.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

// Run publishes buffered events until ctx is cancelled. A failed publish
// is retried once on a fresh connection, then the event is logged and
// dropped.
func (p *Publisher) Run(ctx context.Context) {
	defer p.closeConn()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			body, err := json.Marshal(ev)
			if err != nil {
				p.log.Error().Err(err).Msg("rabbitmq: marshal event failed")
				continue
			}
			if err := p.send(ctx, body); err != nil {
				p.closeConn()
				if err = p.send(ctx, body); err != nil {
					p.log.Error().Err(err).Str("event_id", ev.EventID).Msg("rabbitmq: publish failed")
				}
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *Publisher) connect() error {
	p.closeConn()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) closeConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
