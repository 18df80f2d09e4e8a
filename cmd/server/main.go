package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/labregistry/lab-registry/internal/auth"
	"github.com/labregistry/lab-registry/internal/config"
	"github.com/labregistry/lab-registry/internal/database"
	"github.com/labregistry/lab-registry/internal/handler"
	"github.com/labregistry/lab-registry/internal/queue"
	"github.com/labregistry/lab-registry/internal/repository"
	"github.com/labregistry/lab-registry/internal/router"
	"github.com/labregistry/lab-registry/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	audits := repository.NewAuditRepo(db)
	clients := repository.NewClientRepo(db)
	samples := repository.NewSampleRepo(db)
	methods := repository.NewMethodRepo(db)
	standards := repository.NewStandardRepo(db)

	codec := auth.NewTokenCodec(cfg.JWTSecret)
	registry := auth.NewSessionRegistry(codec, users, sessions)
	sink := auth.NewSink(audits, &service.AuditPublisher{})

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(registry, users, sink),
		Users:     handler.NewUserHandler(users, registry, sink),
		Clients:   handler.NewClientHandler(clients, sink),
		Samples:   handler.NewSampleHandler(samples, clients, sink),
		Methods:   handler.NewMethodHandler(methods, sink),
		Standards: handler.NewStandardHandler(standards, sink),
	}

	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()

	// Mirror consumer writes audit events to logs/audit.log; it reconnects
	// forever on its own.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, registry, sink, rlCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
