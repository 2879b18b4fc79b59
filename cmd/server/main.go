package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"studytracker-backend/internal/config"
	"studytracker-backend/internal/database"
	"studytracker-backend/internal/handlers"
	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/router"
	"studytracker-backend/internal/services"
	"studytracker-backend/internal/websocket"
	"studytracker-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting study tracker backend", "env", cfg.Env, "store", cfg.StoreDriver)

	// ──── Step 2: Open the Session Store ────
	store, closeStore, err := database.OpenSessionStore(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("session store unavailable", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeStore()
	log.Info("session store ready", "driver", cfg.StoreDriver)

	// ──── Step 3: Initialize Redis Clients (optional) ────
	var queueClient, pubsubClient *redis.Client
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal("redis connection failed", "error", err)
		}
		defer redisClients.Close()
		queueClient, pubsubClient = redisClients.Queue, redisClients.PubSub
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_URL not set, running without cache, retry queue or cross-instance events")
	}

	// ──── Step 4: Initialize Services ────
	policy := services.Policy{
		StreakGraceDays: cfg.StreakGraceDays,
		RecentWindow:    cfg.RecentSessionWindow,
		NeverStudied:    cfg.NeverStudiedDays,
		Location:        cfg.Location(),
	}
	events := services.NewBroadcaster(queueClient, log.With("component", "events"))
	tracker := services.NewTracker(store, policy, events, log.With("component", "tracker"))
	tracker.SetChallengeDays(cfg.ChallengeDays)

	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL, log.With("component", "email"))

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(pubsubClient, services.SessionEventsChannel, log.With("component", "ws"))
	if pubsubClient == nil {
		events.SetLocalSink(wsHub.Broadcast)
	}
	wsHub.Start()

	// ──── Step 6: Start Background Workers ────
	workerPool := worker.NewPool(queueClient, tracker, events, 2, log.With("component", "worker"))
	workerPool.Start()

	notificationScheduler := services.NewNotificationScheduler(tracker, emailService, queueClient, cfg.ReminderEmail, cfg.ReminderAfterDays, log.With("component", "notifications"))
	notificationScheduler.Start()

	// Heal any day numbers left stale by a previous run.
	if report, err := tracker.Reindex(context.Background()); err != nil {
		log.Warn("startup reindex incomplete", "error", err)
	} else if len(report.Updated) > 0 {
		log.Info("startup reindex", "updated", len(report.Updated), "total", report.Total)
	}

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		handlers.NewStudySessionHandler(tracker, log.With("component", "sessions")),
		handlers.NewDashboardHandler(tracker, log.With("component", "dashboard")),
		handlers.NewContentHandler(tracker),
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		workerPool.Stop()
		notificationScheduler.Stop()
		wsHub.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info("study tracker backend ready",
		"api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
}
