package main

import (
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/config"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/handlers"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/idempotency"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/simulator"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	sim := simulator.New(idempotency.NewMemoryStore(),
		simulator.WithDecider(simulator.RandomDecider(rng)),
		simulator.WithDelayFunc(simulator.UniformDelay(rng, cfg.MinDelay, cfg.MaxDelay)),
		simulator.WithRetryAfter(cfg.RetryAfter),
	)

	r := setupRouter(handlers.HandlerConfig{Simulator: sim})

	log.Printf("[server] listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
