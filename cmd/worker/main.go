package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/pkg/distlock"
	"github.com/ignite/outreach-engine/internal/pkg/metrics"
	"github.com/ignite/outreach-engine/internal/repository/postgres"
	"github.com/ignite/outreach-engine/internal/voice"
	"github.com/ignite/outreach-engine/internal/worker"
)

func main() {
	log.Println("Starting outreach-engine batch worker...")

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
			log.Printf("Warning: Redis unreachable (%v), lock falls back to PG advisory", err)
			redisClient = nil
		}
	}

	m := metrics.New()
	postRepo := postgres.NewPostRepo(db)
	profileRepo := postgres.NewVoiceProfileRepo(db)
	learner := voice.NewLearner(cfg.Voice)
	lock := distlock.NewLock(redisClient, db, "outreach:batch:full-analysis", cfg.Batch.LockTTL())
	orchestrator := worker.New(postRepo, profileRepo, learner, lock, m, cfg.Batch.PageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	runOnce(ctx, orchestrator)

	interval := cfg.Batch.Interval()
	for {
		// Jitter up to 10% so multiple workers don't contend for the lock in
		// lockstep.
		jitter := time.Duration(rand.Int63n(int64(interval) / 10))
		select {
		case <-ctx.Done():
			log.Println("Worker stopped")
			return
		case <-time.After(interval + jitter):
			runOnce(ctx, orchestrator)
		}
	}
}

func runOnce(ctx context.Context, o *worker.Orchestrator) {
	report, err := o.RunFullAnalysis(ctx)
	switch {
	case errors.Is(err, worker.ErrRunInProgress):
		log.Println("Batch run skipped: another instance holds the lock")
	case err != nil:
		log.Printf("Batch run failed: %v", err)
	default:
		log.Printf("Batch run %s: processed=%d skipped=%d committed=%v errors=%d",
			report.RunID, report.Processed, report.Skipped, report.Committed, len(report.Errors))
	}
}
