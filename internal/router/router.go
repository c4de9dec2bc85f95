// Package router registers the HTTP routes of the venue service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-allocator/internal/handler"
)

// RegisterRoutes registers routes that sit outside the API, currently only
// the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterVenue registers the venue API under /v1. mw runs for every route
// in the group, in order.
func RegisterVenue(e *echo.Echo, h *handler.VenueHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.POST("/commands", h.ExecuteCommands)
	g.GET("/availability", h.Availability)
	g.GET("/reservations", h.Reservations)
}
