// Package queue defines the seat event payload exchanged over RabbitMQ and
// the consumer that records those events.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

// DefaultQueueName is the durable queue seat events are published to.
const DefaultQueueName = "seat_events"

// SeatEvent is the wire form of a venue.Event. EventID is unique per
// message so consumers can drop redeliveries.
type SeatEvent struct {
	EventID    string `json:"event_id"`
	Kind       string `json:"kind"`
	UserID     int    `json:"user_id"`
	SeatID     int    `json:"seat_id"`
	Promoted   bool   `json:"promoted"`
	Revision   uint64 `json:"revision"`
	OccurredAt string `json:"occurred_at"` // RFC 3339, UTC
}

// NewSeatEvent stamps ev with a fresh id and the given time.
func NewSeatEvent(ev venue.Event, at time.Time) SeatEvent {
	return SeatEvent{
		EventID:    uuid.NewString(),
		Kind:       string(ev.Kind),
		UserID:     ev.UserID,
		SeatID:     ev.SeatID,
		Promoted:   ev.Promoted,
		Revision:   ev.Revision,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
	}
}
