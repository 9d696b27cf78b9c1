package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-engine/internal/analyzer"
	"github.com/ignite/outreach-engine/internal/api"
	"github.com/ignite/outreach-engine/internal/cache"
	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/pkg/distlock"
	"github.com/ignite/outreach-engine/internal/pkg/httpretry"
	"github.com/ignite/outreach-engine/internal/pkg/metrics"
	"github.com/ignite/outreach-engine/internal/repository/postgres"
	"github.com/ignite/outreach-engine/internal/scoring"
	"github.com/ignite/outreach-engine/internal/similarity"
	"github.com/ignite/outreach-engine/internal/voice"
	"github.com/ignite/outreach-engine/internal/worker"
)

func main() {
	log.Println("Starting outreach-engine API server...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	cancelPing()
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis unreachable (%v), cache falls back to memory", err)
			redisClient = nil
		} else {
			log.Printf("Connected to Redis at %s", cfg.Redis.Addr)
		}
	}

	m := metrics.New()
	researchCache := cache.New(redisClient, cfg.Cache.Prefix, m)

	var provider similarity.Provider = similarity.NewKeywordProvider()
	if apiKey := cfg.SimilarityAPIKey(); apiKey != "" {
		retryClient := httpretry.NewRetryClient(
			&http.Client{Timeout: cfg.Similarity.Timeout()},
			cfg.Similarity.MaxRetries,
		)
		embedding, err := similarity.NewEmbeddingProvider(
			apiKey, cfg.Similarity.Model, cfg.Similarity.BaseURL, retryClient)
		if err != nil {
			log.Fatalf("Failed to build embedding provider: %v", err)
		}
		provider = embedding
		log.Printf("Similarity: embedding provider (model: %s)", cfg.Similarity.Model)
	} else {
		log.Println("Similarity: no API key configured, using keyword-overlap provider")
	}

	postRepo := postgres.NewPostRepo(db)
	profileRepo := postgres.NewVoiceProfileRepo(db)
	learner := voice.NewLearner(cfg.Voice)
	engine := scoring.New(cfg.Scoring)
	contentAnalyzer := analyzer.New(provider, researchCache, m, cfg.Cache.TopicTTL())

	lock := distlock.NewLock(redisClient, db, "outreach:batch:full-analysis", cfg.Batch.LockTTL())
	orchestrator := worker.New(postRepo, profileRepo, learner, lock, m, cfg.Batch.PageSize)

	server := api.NewServer(
		engine, contentAnalyzer, learner,
		postRepo, profileRepo, researchCache, orchestrator, m,
		cfg.Cache.ResearchTTL(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic sweep of logically expired cache entries.
	go func() {
		ticker := time.NewTicker(cfg.Cache.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := researchCache.Sweep(ctx); err != nil {
					log.Printf("Cache sweep error: %v", err)
				} else if n > 0 {
					log.Printf("Cache sweep removed %d expired entries", n)
				}
			}
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on %s", cfg.Server.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
