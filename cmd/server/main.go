package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/database"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/service"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	events := service.NewPublisher()

	// Redis backs the login/register rate limiter; nil client disables it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting disabled")
	}
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Background consumer appends lifecycle events to logs/auth.log and
	// reconnects on its own; it never stops the server.
	go func() {
		if err := queue.StartConsumer(); err != nil {
			log.Printf("auth-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	authH := handler.NewAuthHandler(cfg, users, sessions, events)
	userH := handler.NewUserHandler(cfg, users, sessions, events)
	router.Register(e, authH, userH, cfg.JWTSecret, rateLimit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
