package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

// Entry is one executed command as handed to a Journal.
type Entry struct {
	Seq        uint64
	Command    string
	Output     string
	Revision   uint64
	ExecutedAt time.Time
}

// Journal records executed commands. Failures are logged by the session
// and never affect the venue.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// Snapshot is a consistent read of a venue's state.
type Snapshot struct {
	Free         int
	Waitlist     int
	Capacity     int
	Revision     uint64
	Terminated   bool
	Reservations []venue.Reservation
}

// Session serializes access to one venue. Each Execute runs the whole
// command under a single lock, so commands from concurrent callers never
// interleave.
type Session struct {
	mu     sync.Mutex
	venue  *venue.Venue
	seq    uint64
	verify bool

	journal Journal
	log     zerolog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithJournal records every executed command to j.
func WithJournal(j Journal) SessionOption {
	return func(s *Session) { s.journal = j }
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(l zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithVerify makes Execute check the venue invariants after every command.
func WithVerify() SessionOption {
	return func(s *Session) { s.verify = true }
}

// NewSession wraps v.
func NewSession(v *venue.Venue, opts ...SessionOption) *Session {
	s := &Session{venue: v, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one command line. The error is non-nil only when
// verification is enabled and the venue fails its invariant check.
func (s *Session) Execute(ctx context.Context, line string) (Result, error) {
	s.mu.Lock()
	res := Execute(s.venue, line)
	s.seq++
	entry := Entry{
		Seq:        s.seq,
		Command:    res.Command,
		Output:     res.Output,
		Revision:   s.venue.Revision(),
		ExecutedAt: time.Now().UTC(),
	}
	var verr error
	if s.verify {
		verr = s.venue.CheckInvariants()
	}
	s.mu.Unlock()

	s.log.Debug().Uint64("seq", entry.Seq).Str("command", entry.Command).Msg("command executed")
	if s.journal != nil {
		if err := s.journal.Record(ctx, entry); err != nil {
			s.log.Warn().Err(err).Uint64("seq", entry.Seq).Msg("journal write failed")
		}
	}
	if verr != nil {
		return res, fmt.Errorf("after %q: %w", res.Command, verr)
	}
	return res, nil
}

// Snapshot returns the current state of the venue.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	free, waiting := s.venue.Available()
	return Snapshot{
		Free:         free,
		Waitlist:     waiting,
		Capacity:     s.venue.Capacity(),
		Revision:     s.venue.Revision(),
		Terminated:   s.venue.Terminated(),
		Reservations: s.venue.Reservations(),
	}
}

// Revision returns the venue revision.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.venue.Revision()
}
