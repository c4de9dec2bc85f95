// Package handler contains the HTTP handlers of the venue service.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/venue-seat-allocator/internal/command"
)

// MaxCommandsPerRequest bounds the batch size of POST /v1/commands.
const MaxCommandsPerRequest = 1000

// MaxBodyBytes bounds the request body of POST /v1/commands.
const MaxBodyBytes = 1 << 20

var (
	errBadBody      = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

// VenueHandler exposes one command session over HTTP.
type VenueHandler struct {
	Session *command.Session
	Log     zerolog.Logger
}

// NewVenueHandler panics on a nil session.
func NewVenueHandler(s *command.Session, log zerolog.Logger) *VenueHandler {
	if s == nil {
		panic("nil session passed to NewVenueHandler")
	}
	return &VenueHandler{Session: s, Log: log}
}

type commandResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
}

type commandsResponse struct {
	Results    []commandResult `json:"results"`
	Terminated bool            `json:"terminated"`
}

type availabilityResponse struct {
	Free     int `json:"free"`
	Waitlist int `json:"waitlist"`
	Capacity int `json:"capacity"`
}

type reservationResponse struct {
	SeatID int `json:"seat_id"`
	UserID int `json:"user_id"`
}

// ExecuteCommands handles POST /v1/commands. The body is either JSON,
// {"commands": ["Reserve(1, 2)", ...]}, or text/plain with one command per
// line. Commands run in order; a Quit ends the batch and the remaining
// lines are not run.
func (h *VenueHandler) ExecuteCommands(c echo.Context) error {
	lines, err := readCommands(c)
	if errors.Is(err, errBodyTooLarge) {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(lines) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no commands provided"})
	}
	if len(lines) > MaxCommandsPerRequest {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "too many commands"})
	}

	ctx := c.Request().Context()
	resp := commandsResponse{Results: make([]commandResult, 0, len(lines))}
	for _, line := range lines {
		res, err := h.Session.Execute(ctx, line)
		resp.Results = append(resp.Results, commandResult{Command: res.Command, Output: res.Output})
		if err != nil {
			h.Log.Error().Err(err).Msg("venue invariant check failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal state check failed"})
		}
		if res.Quit {
			break
		}
	}
	resp.Terminated = h.Session.Snapshot().Terminated
	return c.JSON(http.StatusOK, resp)
}

// Availability handles GET /v1/availability.
func (h *VenueHandler) Availability(c echo.Context) error {
	s := h.Session.Snapshot()
	return c.JSON(http.StatusOK, availabilityResponse{Free: s.Free, Waitlist: s.Waitlist, Capacity: s.Capacity})
}

// Reservations handles GET /v1/reservations, listing reservations in
// ascending user id order.
func (h *VenueHandler) Reservations(c echo.Context) error {
	rs := h.Session.Snapshot().Reservations
	out := make([]reservationResponse, len(rs))
	for i, r := range rs {
		out[i] = reservationResponse{SeatID: r.SeatID, UserID: r.UserID}
	}
	return c.JSON(http.StatusOK, out)
}

// readCommands reads at most MaxBodyBytes; a larger body is rejected
// whole rather than cut at the limit.
func readCommands(c echo.Context) ([]string, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, MaxBodyBytes)

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMETextPlain) {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, bodyError(err)
		}
		return splitLines(string(data)), nil
	}
	var body struct {
		Commands []string `json:"commands"`
	}
	if err := c.Bind(&body); err != nil {
		return nil, bodyError(err)
	}
	lines := body.Commands[:0]
	for _, l := range body.Commands {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return errBadBody
}

func splitLines(body string) []string {
	var lines []string
	for _, l := range strings.Split(body, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
