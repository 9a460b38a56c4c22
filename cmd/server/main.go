package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/service-marketplace-api/internal/booking"
	"github.com/iliyamo/service-marketplace-api/internal/config"
	"github.com/iliyamo/service-marketplace-api/internal/database"
	"github.com/iliyamo/service-marketplace-api/internal/discovery"
	"github.com/iliyamo/service-marketplace-api/internal/handler"
	"github.com/iliyamo/service-marketplace-api/internal/middleware"
	"github.com/iliyamo/service-marketplace-api/internal/queue"
	"github.com/iliyamo/service-marketplace-api/internal/repository"
	"github.com/iliyamo/service-marketplace-api/internal/review"
	"github.com/iliyamo/service-marketplace-api/internal/router"
	"github.com/iliyamo/service-marketplace-api/internal/session"
)

func main() {
	// .env is optional; deployed environments inject real variables.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades to passthrough

	users := repository.NewUserRepo(db)
	appointments := repository.NewAppointmentRepo(db)
	reviews := repository.NewReviewRepo(db)
	services := repository.NewServiceRepo(db)

	guard := session.NewGuard(session.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		AccessTTL:     time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL:    time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	}, users)

	engine := booking.NewEngine(appointments)
	gate := review.NewGate(reviews, appointments, services)
	finder := discovery.NewFinder(services, users)

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, guard, users), guard)
	router.RegisterAppointments(e, handler.NewAppointmentHandler(engine), guard)
	router.RegisterReviews(e, handler.NewReviewHandler(gate), guard)
	router.RegisterProviders(e, handler.NewProviderHandler(finder, users, services), guard, limit, cache)
	router.RegisterServices(e, handler.NewServiceHandler(services), guard, cache)

	go func() {
		if err := queue.StartAppointmentConsumer(); err != nil {
			log.Printf("appointment consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
