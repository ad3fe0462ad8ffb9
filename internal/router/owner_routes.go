package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/ridehive/ridehive-api/internal/handler"    // owner handlers
	"github.com/ridehive/ridehive-api/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, b *handler.BookingHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Cars ----
	g.POST("/cars", o.CreateCar)
	g.GET("/cars", o.ListCars)
	g.GET("/cars/:id", o.GetCar)
	g.PUT("/cars/:id", o.UpdateCar)
	g.PATCH("/cars/:id", o.UpdateCar) // allow partial/semantic updates via PATCH as well
	g.DELETE("/cars/:id", o.DeleteCar)

	// ---- Listings ----
	g.POST("/listings", o.CreateListing)
	g.GET("/listings", o.ListMyListings)
	g.GET("/listings/:id", o.GetListing)
	g.PUT("/listings/:id", o.UpdateListing)
	g.PATCH("/listings/:id", o.UpdateListing)
	g.DELETE("/listings/:id", o.DeleteListing)

	// ---- Booking requests ----
	g.GET("/requests/incoming", b.IncomingRequests)
	g.PUT("/requests/:id/accept", b.Accept)
	g.PUT("/requests/:id/decline", b.Decline)
}
