package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/venue-seat-allocator/internal/queue"
	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

type recorder struct {
	mu     sync.Mutex
	bodies [][]byte
	fail   int // number of sends to fail before succeeding
	got    chan struct{}
}

func (r *recorder) send(_ context.Context, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail > 0 {
		r.fail--
		return errors.New("broker unavailable")
	}
	r.bodies = append(r.bodies, body)
	r.got <- struct{}{}
	return nil
}

func (r *recorder) events(t *testing.T) []queue.SeatEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.SeatEvent, len(r.bodies))
	for i, b := range r.bodies {
		if err := json.Unmarshal(b, &out[i]); err != nil {
			t.Fatal(err)
		}
	}
	return out
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d of %d events", i, n)
		}
	}
}

func TestPublisherForwardsVenueEvents(t *testing.T) {
	rec := &recorder{got: make(chan struct{}, 16), fail: 1}
	p := NewPublisher("amqp://unused", queue.DefaultQueueName, 16, zerolog.Nop())
	p.send = rec.send

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	v := venue.New(venue.WithObserver(p))
	if err := v.Initialize(1); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Reserve(1, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Reserve(2, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Cancel(1, 1); err != nil {
		t.Fatal(err)
	}
	waitFor(t, rec.got, 3)

	got := rec.events(t)
	want := []struct {
		kind     string
		user     int
		promoted bool
	}{
		{"seat.assigned", 1, false},
		{"seat.released", 1, false},
		{"seat.assigned", 2, true},
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].UserID != w.user || got[i].Promoted != w.promoted || got[i].SeatID != 1 {
			t.Errorf("event %d = %+v, want %+v", i, got[i], w)
		}
	}
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := NewPublisher("amqp://unused", queue.DefaultQueueName, 2, zerolog.Nop())
	for i := 0; i < 5; i++ {
		p.Observe(venue.Event{Kind: venue.SeatAssigned, UserID: i, SeatID: i})
	}
	if p.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", p.Dropped())
	}
}
