package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/ridehive/ridehive-api/internal/booking"         // Booking request coordinator
	"github.com/ridehive/ridehive-api/internal/config"          // Internal config loader
	"github.com/ridehive/ridehive-api/internal/database"        // MySQL connection helper
	"github.com/ridehive/ridehive-api/internal/handler"         // HTTP handlers
	"github.com/ridehive/ridehive-api/internal/middleware"      // Rate limiting and caching middleware
	"github.com/ridehive/ridehive-api/internal/queue"           // Booking event consumer
	"github.com/ridehive/ridehive-api/internal/repository"      // Data access layer
	"github.com/ridehive/ridehive-api/internal/router"                           // Route registration
	queue_publisher "github.com/ridehive/ridehive-api/internal/service"          // RabbitMQ publisher
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the public browse cache.  A nil
	// client disables both and the API keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	cars := repository.NewCarRepo(db)
	listings := repository.NewListingRepo(db)
	requests := repository.NewBookingRequestRepo(db)
	notifications := repository.NewNotificationRepo(db)

	coordinator := booking.NewCoordinator(db, users, cars, listings, requests, notifications, queue_publisher.PublishBookingEvent)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	ownerH := handler.NewOwnerHandler(cars, listings)
	bookingH := handler.NewBookingHandler(coordinator, requests)
	notifH := handler.NewNotificationHandler(notifications)
	publicH := handler.NewPublicHandler(listings, cars)

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterOwner(e, ownerH, bookingH, cfg.JWTSecret)
	router.RegisterClient(e, bookingH, cfg.JWTSecret)
	router.RegisterNotifications(e, notifH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Consume booking events in the background; the consumer reconnects
	// on broker failures and never takes the API down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
