package venue

// EventKind distinguishes seat events.
type EventKind string

const (
	// SeatAssigned is emitted when a seat is given to a user, either from
	// the free pool or by promotion from the waitlist.
	SeatAssigned EventKind = "seat.assigned"
	// SeatReleased is emitted when a user gives up a seat through Cancel or
	// ReleaseSeats.
	SeatReleased EventKind = "seat.released"
)

// Event describes one change to the seat map.
type Event struct {
	Kind     EventKind
	UserID   int
	SeatID   int
	Promoted bool   // SeatAssigned only: seat came straight from a release or a new seat
	Revision uint64 // venue revision the event belongs to
}

// Observer receives seat events. Observe is called synchronously while
// the venue is being mutated, so implementations must not block and must
// not call back into the venue.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }
