package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/venue-seat-allocator/internal/command"
	"github.com/iliyamo/venue-seat-allocator/internal/handler"
	"github.com/iliyamo/venue-seat-allocator/internal/venue"
)

func TestRoutes(t *testing.T) {
	e := echo.New()
	RegisterRoutes(e)

	var seen []string
	trace := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			seen = append(seen, c.Path())
			return next(c)
		}
	}
	h := handler.NewVenueHandler(command.NewSession(venue.New()), zerolog.Nop())
	RegisterVenue(e, h, trace)

	tests := []struct {
		method, path, body string
		code               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/v1/commands", "Initialize(2)", http.StatusOK},
		{http.MethodGet, "/v1/availability", "", http.StatusOK},
		{http.MethodGet, "/v1/reservations", "", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tt.code {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.code)
		}
	}
	if len(seen) != 3 {
		t.Errorf("group middleware ran for %v", seen)
	}
}
