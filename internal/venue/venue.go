// Package venue implements seat allocation for a single venue.
//
// A Venue tracks which seats are free, which are reserved and by whom, and
// which users are waiting for a seat. Free seats are handed out smallest
// id first. When a seat is released, or a new seat is added, while users
// are waiting, the seat goes straight to the best-ranked waiting user
// (highest priority, earliest joiner among equals) instead of returning to
// the free pool.
//
// Every operation is atomic: it either completes all of its changes or,
// when it returns an error, changes nothing. A Venue is not safe for
// concurrent use; callers serialize access (see command.Session).
package venue

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/iliyamo/venue-seat-allocator/internal/directory"
	"github.com/iliyamo/venue-seat-allocator/internal/pqueue"
)

// Assignment is the outcome of placing a user: either a seat or a place on
// the waitlist.
type Assignment struct {
	UserID     int
	SeatID     int // zero when Waitlisted
	Waitlisted bool
}

// Reservation pairs a seat with the user holding it.
type Reservation struct {
	UserID int
	SeatID int
}

// DefaultMaxSeats bounds the capacity of a venue unless WithMaxSeats says
// otherwise.
const DefaultMaxSeats = 1_000_000

// Venue owns the seat map of one venue.
type Venue struct {
	reserved *directory.Tree[int, int] // user id -> seat id
	holders  map[int]int               // seat id -> user id
	free     *pqueue.Queue[int, int]   // seat ids, smallest first
	waitlist *pqueue.Queue[int, int]   // user ids by priority, then join order
	capacity int
	maxSeats int

	seq        uint64 // join-order counter for waitlist tie-breaks
	revision   uint64
	terminated bool

	observer Observer
	log      zerolog.Logger
}

// Option configures a Venue.
type Option func(*Venue)

// WithObserver registers an observer for seat events.
func WithObserver(o Observer) Option {
	return func(v *Venue) { v.observer = o }
}

// WithMaxSeats caps the capacity Initialize and AddSeats may reach.
// Non-positive values keep the default.
func WithMaxSeats(n int) Option {
	return func(v *Venue) {
		if n > 0 {
			v.maxSeats = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(v *Venue) { v.log = l }
}

// New returns an empty venue with no seats. Call Initialize to create
// seats.
func New(opts ...Option) *Venue {
	v := &Venue{
		reserved: directory.New[int, int](),
		holders:  make(map[int]int),
		free:     pqueue.NewMin[int, int](),
		waitlist: pqueue.NewMax[int, int](),
		maxSeats: DefaultMaxSeats,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Initialize discards all reservations and waiting users and creates
// seats 1..n, all free.
func (v *Venue) Initialize(n int) error {
	if v.terminated {
		return ErrTerminated
	}
	if n <= 0 || n > v.maxSeats {
		return ErrInvalidSeatCount
	}
	v.reserved.Clear()
	v.holders = make(map[int]int)
	v.free.Clear()
	v.waitlist.Clear()
	for seat := 1; seat <= n; seat++ {
		v.pool(seat)
	}
	v.capacity = n
	v.revision++
	v.log.Debug().Int("seats", n).Msg("venue initialized")
	return nil
}

// Available returns the number of free seats and the number of waiting
// users.
func (v *Venue) Available() (free, waiting int) {
	return v.free.Len(), v.waitlist.Len()
}

// MaxSeats returns the capacity limit.
func (v *Venue) MaxSeats() int { return v.maxSeats }

// Capacity returns the highest seat id created so far.
func (v *Venue) Capacity() int { return v.capacity }

// Revision returns a counter that changes on every successful mutation.
func (v *Venue) Revision() uint64 { return v.revision }

// Terminated reports whether Quit has been called.
func (v *Venue) Terminated() bool { return v.terminated }

// Reserve gives userID the smallest free seat, or puts the user on the
// waitlist with the given priority when no seat is free. A user may hold
// at most one seat or one waitlist place at a time.
func (v *Venue) Reserve(userID, priority int) (Assignment, error) {
	if v.terminated {
		return Assignment{}, ErrTerminated
	}
	if v.reserved.Find(userID) != nil {
		return Assignment{}, ErrAlreadyReserved
	}
	if v.waitlist.Contains(userID) {
		return Assignment{}, ErrAlreadyWaitlisted
	}

	v.revision++
	if it, ok := v.free.Pop(); ok {
		v.assign(userID, it.Key, false)
		return Assignment{UserID: userID, SeatID: it.Key}, nil
	}
	if err := v.waitlist.Insert(userID, priority, v.seq); err != nil {
		return Assignment{}, fmt.Errorf("waitlist user %d: %w", userID, err)
	}
	v.seq++
	v.log.Debug().Int("user", userID).Int("priority", priority).Msg("user waitlisted")
	return Assignment{UserID: userID, Waitlisted: true}, nil
}

// Cancel releases seatID held by userID. The seat goes to the best waiting
// user if there is one, and the returned assignment describes that
// promotion; otherwise the seat returns to the free pool and the returned
// assignment is nil.
func (v *Venue) Cancel(seatID, userID int) (*Assignment, error) {
	if v.terminated {
		return nil, ErrTerminated
	}
	holder, ok := v.holders[seatID]
	if !ok {
		return nil, ErrNoReservation
	}
	if holder != userID {
		return nil, ErrSeatNotHeld
	}
	h := v.reserved.Find(userID)
	if h == nil || h.Value() != seatID {
		return nil, fmt.Errorf("seat %d: directory out of sync: %w", seatID, ErrNoReservation)
	}

	v.revision++
	v.release(h)
	return v.reassign(seatID), nil
}

// ExitWaitlist removes userID from the waitlist.
func (v *Venue) ExitWaitlist(userID int) error {
	if v.terminated {
		return ErrTerminated
	}
	if !v.waitlist.Remove(userID) {
		return ErrNotWaitlisted
	}
	v.revision++
	return nil
}

// UpdatePriority changes the priority of a waiting user. Users holding a
// seat are not affected.
func (v *Venue) UpdatePriority(userID, priority int) error {
	if v.terminated {
		return ErrTerminated
	}
	if !v.waitlist.Update(userID, priority) {
		return ErrNotWaitlisted
	}
	v.revision++
	return nil
}

// AddSeats creates count new seats numbered after the current capacity,
// in ascending order. Each new seat goes to the best waiting user if there
// is one and to the free pool otherwise. The returned assignments list the
// promotions in the order they happened.
func (v *Venue) AddSeats(count int) ([]Assignment, error) {
	if v.terminated {
		return nil, ErrTerminated
	}
	if count <= 0 || count > v.maxSeats-v.capacity {
		return nil, ErrInvalidSeatCount
	}

	v.revision++
	var promoted []Assignment
	for i := 0; i < count; i++ {
		v.capacity++
		if a := v.reassign(v.capacity); a != nil {
			promoted = append(promoted, *a)
		}
	}
	v.log.Debug().Int("added", count).Int("capacity", v.capacity).Msg("seats added")
	return promoted, nil
}

// Reservations lists every reservation in ascending user id order.
func (v *Venue) Reservations() []Reservation {
	entries := v.reserved.Entries()
	out := make([]Reservation, len(entries))
	for i, e := range entries {
		out[i] = Reservation{UserID: e.Key, SeatID: e.Value}
	}
	return out
}

// ReleaseSeats drops every user with an id in [lo, hi]: waiting users are
// removed from the waitlist first, then reserved seats are released in
// ascending seat id order, each going to the best remaining waiting user
// or back to the free pool. The returned assignments list the promotions.
func (v *Venue) ReleaseSeats(lo, hi int) ([]Assignment, error) {
	if v.terminated {
		return nil, ErrTerminated
	}
	if lo > hi {
		return nil, ErrInvalidRange
	}

	v.revision++
	for _, userID := range v.waitlist.Keys() {
		if userID >= lo && userID <= hi {
			v.waitlist.Remove(userID)
		}
	}

	var held []Reservation
	v.reserved.AscendRange(lo, hi, func(userID, seatID int) bool {
		held = append(held, Reservation{UserID: userID, SeatID: seatID})
		return true
	})
	slices.SortFunc(held, func(a, b Reservation) int { return cmp.Compare(a.SeatID, b.SeatID) })

	var promoted []Assignment
	for _, r := range held {
		v.release(v.reserved.Find(r.UserID))
		if a := v.reassign(r.SeatID); a != nil {
			promoted = append(promoted, *a)
		}
	}
	v.log.Debug().Int("from", lo).Int("to", hi).Int("released", len(held)).Msg("seats released")
	return promoted, nil
}

// Quit terminates the venue. Every later mutating call fails with
// ErrTerminated; reads keep working.
func (v *Venue) Quit() {
	if !v.terminated {
		v.terminated = true
		v.revision++
	}
}

// assign records that userID holds seatID.
func (v *Venue) assign(userID, seatID int, promoted bool) {
	v.reserved.Insert(userID, seatID)
	v.holders[seatID] = userID
	v.log.Debug().Int("user", userID).Int("seat", seatID).Bool("promoted", promoted).Msg("seat assigned")
	v.emit(Event{Kind: SeatAssigned, UserID: userID, SeatID: seatID, Promoted: promoted})
}

// release drops the reservation referenced by h from both views.
func (v *Venue) release(h *directory.Handle[int, int]) {
	userID, seatID := h.Key(), h.Value()
	v.reserved.Delete(h)
	delete(v.holders, seatID)
	v.emit(Event{Kind: SeatReleased, UserID: userID, SeatID: seatID})
}

// reassign hands an unheld seat to the best waiting user, or pools it
// when nobody waits.
func (v *Venue) reassign(seatID int) *Assignment {
	next, ok := v.waitlist.Pop()
	if !ok {
		v.pool(seatID)
		return nil
	}
	v.assign(next.Key, seatID, true)
	return &Assignment{UserID: next.Key, SeatID: seatID}
}

func (v *Venue) pool(seatID int) {
	// seatID is neither held nor pooled here, so the key is unique.
	_ = v.free.Insert(seatID, seatID, 0)
}

func (v *Venue) emit(ev Event) {
	if v.observer == nil {
		return
	}
	ev.Revision = v.revision
	v.observer.Observe(ev)
}

// CheckInvariants verifies the internal consistency of the venue: every
// seat in 1..Capacity is either free or held (never both), the seat→user
// and user→seat views agree, no user both holds a seat and waits, and both
// queues and the directory are structurally sound. It runs in O(n).
func (v *Venue) CheckInvariants() error {
	if err := v.free.Verify(); err != nil {
		return fmt.Errorf("free pool: %w", err)
	}
	if err := v.waitlist.Verify(); err != nil {
		return fmt.Errorf("waitlist: %w", err)
	}
	if err := v.reserved.Verify(); err != nil {
		return fmt.Errorf("reservations: %w", err)
	}
	if v.reserved.Len() != len(v.holders) {
		return fmt.Errorf("%d reservations but %d held seats", v.reserved.Len(), len(v.holders))
	}
	var err error
	v.reserved.Ascend(func(userID, seatID int) bool {
		if v.holders[seatID] != userID {
			err = fmt.Errorf("user %d holds seat %d but seat maps to user %d", userID, seatID, v.holders[seatID])
			return false
		}
		if v.waitlist.Contains(userID) {
			err = fmt.Errorf("user %d both holds seat %d and waits", userID, seatID)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if v.free.Len()+len(v.holders) != v.capacity {
		return fmt.Errorf("%d free + %d held seats, capacity %d", v.free.Len(), len(v.holders), v.capacity)
	}
	for seat := 1; seat <= v.capacity; seat++ {
		_, held := v.holders[seat]
		if held == v.free.Contains(seat) {
			return fmt.Errorf("seat %d: held=%v, free=%v", seat, held, !held)
		}
	}
	return nil
}
