package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/ridehive/ridehive-api/internal/handler"    // import the handlers that implement business logic
	"github.com/ridehive/ridehive-api/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health
// check, used by load balancers and monitoring to verify the service
// is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotating refresh: exchanges the refresh token for a new pair.
	g.POST("/refresh", a.Refresh)
	// Non-rotating variant: new access token, same refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revoke all sessions) or a
	// refresh_token body (revoke one session), so no JWT middleware.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("OWNER", "CLIENT"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints.  The
// optional middleware (typically the Redis response cache) is applied
// to every browse route.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1/browse", mw...)
	// Every listing with at least one open slot.
	g.GET("/listings", p.BrowseListings)
	// Listing detail including its bookable dates.
	g.GET("/listings/:id", p.BrowseListing)
}

// RegisterNotifications registers the per-user notification inbox.
// Both roles receive notifications, so only a valid JWT is required.
func RegisterNotifications(e *echo.Echo, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/notifications",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER", "CLIENT"),
	)
	g.GET("", n.List)
	g.GET("/unread-count", n.UnreadCount)
	g.PUT("/read-all", n.MarkAllRead)
	g.GET("/:id", n.Get)
	g.PUT("/:id/read", n.MarkRead)
	g.DELETE("/:id", n.Delete)
}
