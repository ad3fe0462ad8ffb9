package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/ridehive/ridehive-api/internal/handler"    // client-facing booking handlers
	"github.com/ridehive/ridehive-api/internal/middleware" // JWT + role middlewares
)

// RegisterClient registers CLIENT-scoped endpoints under /v1.
// All routes require a valid JWT and CLIENT role.
func RegisterClient(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CLIENT"),
	)

	// Place a booking request against a listing's open dates.
	g.POST("/requests", b.CreateRequest)
	// Every request the client has placed, newest first.
	g.GET("/my-requests", b.MyRequests)
}
