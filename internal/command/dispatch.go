package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

// Command names accepted by Execute. Matching is case-sensitive.
const (
	Initialize        = "Initialize"
	Available         = "Available"
	Reserve           = "Reserve"
	Cancel            = "Cancel"
	ExitWaitlist      = "ExitWaitlist"
	UpdatePriority    = "UpdatePriority"
	AddSeats          = "AddSeats"
	PrintReservations = "PrintReservations"
	ReleaseSeats      = "ReleaseSeats"
	Quit              = "Quit"
)

const (
	msgMalformed       = "Invalid command format"
	msgInvalidSeats    = "Invalid input. Please provide a valid number of seats."
	msgInvalidRange    = "Invalid input. Please provide a valid range of users."
	msgTerminated      = "Program Terminated!!"
	msgAlreadyFinished = "Program has already terminated"
)

// Result is the rendered outcome of one command.
type Result struct {
	Command string // input line, trimmed
	Output  string // one or more lines joined by "\n"
	Quit    bool   // the command was Quit; no further lines should be read
}

// Execute parses line, applies it to v and renders the result. Malformed
// lines, unknown names and bad arguments produce an error line and leave v
// unchanged.
func Execute(v *venue.Venue, line string) Result {
	line = strings.TrimSpace(line)
	cmd, err := Parse(line)
	if err != nil {
		return Result{Command: line, Output: msgMalformed}
	}
	out, quit := apply(v, cmd)
	return Result{Command: line, Output: out, Quit: quit}
}

func apply(v *venue.Venue, cmd Command) (string, bool) {
	badParams := "Invalid parameters for command " + cmd.Name

	switch cmd.Name {
	case Initialize:
		if len(cmd.Args) != 1 {
			return badParams, false
		}
		n, ok := cmd.ints(1)
		if !ok {
			return msgInvalidSeats, false
		}
		if err := v.Initialize(n[0]); err != nil {
			return render(err, cmd.Name, n...), false
		}
		return fmt.Sprintf("%d Seats are made available for reservation", n[0]), false

	case Available:
		if len(cmd.Args) != 0 {
			return badParams, false
		}
		free, waiting := v.Available()
		return fmt.Sprintf("Total Seats Available : %d, Waitlist : %d", free, waiting), false

	case Reserve:
		a, ok := cmd.ints(2)
		if !ok {
			return badParams, false
		}
		res, err := v.Reserve(a[0], a[1])
		if err != nil {
			return render(err, cmd.Name, a...), false
		}
		if res.Waitlisted {
			return fmt.Sprintf("User %d is added to the waiting list", res.UserID), false
		}
		return assigned(res), false

	case Cancel:
		a, ok := cmd.ints(2)
		if !ok {
			return badParams, false
		}
		seat, user := a[0], a[1]
		promoted, err := v.Cancel(seat, user)
		if err != nil {
			return render(err, cmd.Name, a...), false
		}
		lines := []string{fmt.Sprintf("User %d canceled their reservation", user)}
		if promoted != nil {
			lines = append(lines, assigned(*promoted))
		}
		return strings.Join(lines, "\n"), false

	case ExitWaitlist:
		a, ok := cmd.ints(1)
		if !ok {
			return badParams, false
		}
		if err := v.ExitWaitlist(a[0]); err != nil {
			return render(err, cmd.Name, a...), false
		}
		return fmt.Sprintf("User %d is removed from the waiting list", a[0]), false

	case UpdatePriority:
		a, ok := cmd.ints(2)
		if !ok {
			return badParams, false
		}
		if err := v.UpdatePriority(a[0], a[1]); err != nil {
			return render(err, cmd.Name, a...), false
		}
		return fmt.Sprintf("User %d priority has been updated to %d", a[0], a[1]), false

	case AddSeats:
		if len(cmd.Args) != 1 {
			return badParams, false
		}
		n, ok := cmd.ints(1)
		if !ok {
			return msgInvalidSeats, false
		}
		promoted, err := v.AddSeats(n[0])
		if err != nil {
			return render(err, cmd.Name, n...), false
		}
		lines := []string{fmt.Sprintf("Additional %d Seats are made available for reservation", n[0])}
		for _, p := range promoted {
			lines = append(lines, assigned(p))
		}
		return strings.Join(lines, "\n"), false

	case PrintReservations:
		if len(cmd.Args) != 0 {
			return badParams, false
		}
		// Ascending by user id, the directory's key order.
		rs := v.Reservations()
		lines := make([]string, len(rs))
		for i, r := range rs {
			lines[i] = fmt.Sprintf("Seat %d, User %d", r.SeatID, r.UserID)
		}
		return strings.Join(lines, "\n"), false

	case ReleaseSeats:
		a, ok := cmd.ints(2)
		if !ok {
			return badParams, false
		}
		promoted, err := v.ReleaseSeats(a[0], a[1])
		if err != nil {
			return render(err, cmd.Name, a...), false
		}
		lines := []string{fmt.Sprintf("Reservations of the Users in the range [%d, %d] are released", a[0], a[1])}
		for _, p := range promoted {
			lines = append(lines, assigned(p))
		}
		return strings.Join(lines, "\n"), false

	case Quit:
		if len(cmd.Args) != 0 {
			return badParams, false
		}
		if v.Terminated() {
			return msgAlreadyFinished, true
		}
		v.Quit()
		return msgTerminated, true
	}
	return "Unknown command: " + cmd.Name, false
}

func assigned(a venue.Assignment) string {
	return fmt.Sprintf("User %d reserved seat %d", a.UserID, a.SeatID)
}

// render maps a venue error to its output line. args are the command's
// integer arguments.
func render(err error, name string, args ...int) string {
	arg := func(i int) int {
		if i < len(args) {
			return args[i]
		}
		return 0
	}
	switch {
	case errors.Is(err, venue.ErrTerminated):
		return msgAlreadyFinished
	case errors.Is(err, venue.ErrInvalidSeatCount):
		return msgInvalidSeats
	case errors.Is(err, venue.ErrInvalidRange):
		return msgInvalidRange
	case errors.Is(err, venue.ErrSeatNotHeld):
		return fmt.Sprintf("User %d has no reservation for seat %d to cancel", arg(1), arg(0))
	case errors.Is(err, venue.ErrNoReservation):
		return fmt.Sprintf("User %d has no reservation to cancel", arg(1))
	case errors.Is(err, venue.ErrNotWaitlisted) && name == UpdatePriority:
		return fmt.Sprintf("User %d priority is not updated", arg(0))
	case errors.Is(err, venue.ErrNotWaitlisted):
		return fmt.Sprintf("User %d is not in waitlist", arg(0))
	case errors.Is(err, venue.ErrAlreadyReserved):
		return fmt.Sprintf("User %d already has a reserved seat", arg(0))
	case errors.Is(err, venue.ErrAlreadyWaitlisted):
		return fmt.Sprintf("User %d is already in the waiting list", arg(0))
	}
	return "Error: " + err.Error()
}
