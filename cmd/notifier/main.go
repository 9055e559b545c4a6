// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/geonook/es-international-department-sub001/internal/api"
	"github.com/geonook/es-international-department-sub001/internal/common/aws"
	"github.com/geonook/es-international-department-sub001/internal/common/config"
	"github.com/geonook/es-international-department-sub001/internal/common/database"
	httpx "github.com/geonook/es-international-department-sub001/internal/common/http"
	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/common/observability"
	"github.com/geonook/es-international-department-sub001/internal/notification"
	"github.com/geonook/es-international-department-sub001/internal/notification/dedup"
	"github.com/geonook/es-international-department-sub001/internal/notification/delivery"
	"github.com/geonook/es-international-department-sub001/internal/notification/directory"
	"github.com/geonook/es-international-department-sub001/internal/notification/preferences"
	"github.com/geonook/es-international-department-sub001/internal/notification/recipients"
	"github.com/geonook/es-international-department-sub001/internal/notification/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Delivery channels ---
	var sesClient *aws.SESClient
	if cfg.Notifications.Email.Enabled {
		sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	var snsClient *aws.SNSClient
	if cfg.Notifications.SMS.Enabled {
		snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}

	realtimeClient := httpx.NewClient(time.Duration(cfg.Notifications.Realtime.Timeout) * time.Millisecond)

	realtimeChannel := delivery.NewRealtimeChannel(
		cfg.Notifications.Realtime.Endpoint,
		cfg.Notifications.Realtime.Enabled,
		realtimeClient,
		log,
	)
	emailChannel := delivery.NewEmailChannel(
		sesClient,
		cfg.Notifications.Email.FromEmail,
		cfg.Notifications.Email.Enabled,
		log,
	)
	smsChannel := delivery.NewSMSChannel(
		snsClient,
		cfg.Notifications.SMS.Enabled,
		cfg.Notifications.SMS.PriorityThreshold,
		cfg.Notifications.SMS.SenderID,
		log,
	)

	// --- Core wiring ---
	dir := directory.New(pg.DB, log)
	svc := notification.NewService(notification.Dependencies{
		Resolver:    recipients.NewResolver(dir, log),
		Guard:       dedup.NewGuard(pg.DB, time.Duration(cfg.Notifications.DedupWindowHours)*time.Hour, log),
		Store:       store.New(pg.DB, log),
		Preferences: preferences.NewStore(redis.Client, log),
		Directory:   dir,
		Realtime:    realtimeChannel,
		Email:       emailChannel,
		SMS:         smsChannel,
		Logger:      log,
		Obs:         obs,

		ReminderLookahead: time.Duration(cfg.Notifications.ReminderLookaheadHours) * time.Hour,
	})

	apiServer := api.NewServer(svc, log)

	mux := http.NewServeMux()
	mux.Handle(cfg.Server.MetricsPath, promhttp.Handler())
	mux.Handle("/", apiServer.Handler())

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Notification service stopped gracefully")
}
