package venue

import "errors"

// Validation errors. The venue is left untouched when one is returned.
var (
	// ErrInvalidSeatCount is returned by Initialize and AddSeats when the
	// requested number of seats is not a positive integer.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrInvalidRange is returned by ReleaseSeats when the lower user id
	// is greater than the upper one.
	ErrInvalidRange = errors.New("invalid user range")
)

// Lookup failures. Like validation errors they never change state.
var (
	// ErrNoReservation means the seat passed to Cancel is not reserved by
	// anyone.
	ErrNoReservation = errors.New("seat has no reservation")

	// ErrSeatNotHeld means the seat passed to Cancel is reserved, but by a
	// different user.
	ErrSeatNotHeld = errors.New("seat is reserved by another user")

	// ErrNotWaitlisted is returned by ExitWaitlist and UpdatePriority for a
	// user that is not on the waitlist.
	ErrNotWaitlisted = errors.New("user is not on the waitlist")

	// ErrAlreadyReserved is returned by Reserve for a user that already
	// holds a seat.
	ErrAlreadyReserved = errors.New("user already holds a seat")

	// ErrAlreadyWaitlisted is returned by Reserve for a user that is already
	// waiting.
	ErrAlreadyWaitlisted = errors.New("user is already on the waitlist")
)

// ErrTerminated is returned by every mutating operation after Quit.
var ErrTerminated = errors.New("venue has terminated")
