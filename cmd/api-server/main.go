package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/careconnect/scheduling/internal/api"
	"github.com/careconnect/scheduling/internal/booking"
	"github.com/careconnect/scheduling/internal/calendar"
	"github.com/careconnect/scheduling/internal/config"
	"github.com/careconnect/scheduling/internal/db"
	"github.com/careconnect/scheduling/internal/notify"
	redisclient "github.com/careconnect/scheduling/internal/redis"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s timezone=%s", cfg.Env, cfg.HTTPPort, cfg.ClinicTimeZone)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	// External calendar is optional; without it busy periods are empty
	// and sync outcomes are recorded as skipped.
	var cal calendar.Client = calendar.NoopClient{}
	if cfg.CalendarBaseURL != "" {
		cal = calendar.NewHTTPClient(cfg.CalendarBaseURL, cfg.CalendarAPIKey)
		log.Printf("external calendar enabled at %s", cfg.CalendarBaseURL)
	} else {
		log.Println("external calendar not configured, sync will be skipped")
	}

	// Mail queue is optional too.
	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("amqp connection error: %v", err)
		}
		defer conn.Close()

		publisher, err := notify.NewAMQPPublisher(conn, cfg.NotifyQueue)
		if err != nil {
			log.Fatalf("amqp publisher error: %v", err)
		}
		defer publisher.Close()
		notifier = publisher
		log.Printf("confirmation queue %s ready", cfg.NotifyQueue)
	} else {
		log.Println("mail queue not configured, confirmations will be skipped")
	}

	loc := cfg.Location()

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisDoctorLocker(rdb, cfg.LockTTL)

	reconciler := booking.NewReconciler(repo, cal, notifier)
	reconciler.Start()

	svc := booking.NewService(repo, locker, cal, reconciler, loc)

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		PgPool:   pgPool,
		Redis:    rdb,
		Location: loc,
		Env:      cfg.Env,
		Version:  version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	// Drain in-flight reconciliation before closing connections.
	reconciler.Close()

	log.Println("api-server stopped")
}
