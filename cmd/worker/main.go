package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"outreach.app/courier/common/id"
	"outreach.app/courier/common/logger"
	"outreach.app/courier/common/otel"
	"outreach.app/courier/core/config"
	"outreach.app/courier/core/db"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/queue"
	"outreach.app/courier/internal/scheduler"
	"outreach.app/courier/internal/service"
	"outreach.app/courier/internal/store"
	"outreach.app/courier/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "courier worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Redis.ReminderGroup,
		"consumer_name", cfg.Redis.ReminderConsumer,
		"cron", cfg.Reminders.Cron)

	// Different node ID than the server
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.ReminderStream)

	producer := queue.NewRedisProducer(redisClient, cfg.Redis.ReminderStream, slog.Default())

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Redis.ReminderStream,
		Group:        cfg.Redis.ReminderGroup,
		Consumer:     cfg.Redis.ReminderConsumer,
		DLQStream:    cfg.Redis.ReminderDLQ,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Reminders.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	services := service.NewServices(store.NewStores(database.Conn()), service.ServicesConfig{
		Notifier: notify.NewSlackNotifier(cfg.Slack, cfg.ExternalCallTimeout, slog.Default()),
		Producer: producer,
		Logger:   slog.Default(),
	})
	reminders := services.Reminders()

	sched, err := scheduler.New(cfg.Reminders.Cron, reminders, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create scheduler", "error", err)
		os.Exit(1)
	}

	w := worker.New(consumer, reminders, worker.Config{
		MaxAttempts: cfg.Reminders.MaxAttempts,
	})

	reclaimer := worker.NewReclaimer(consumer, consumer, reminders, w.HandleMessage, worker.ReclaimerConfig{
		Claimant:      cfg.Redis.ReminderConsumer + "-reclaimer",
		MinIdle:       5 * time.Minute,
		Interval:      1 * time.Minute,
		BatchSize:     10,
		MaxDeliveries: int64(cfg.Reminders.MaxAttempts) + 2,
	})

	// Catch up on anything that came due while no worker was running.
	if _, err := sched.RunNow(ctx); err != nil {
		slog.WarnContext(ctx, "startup sweep failed", "error", err)
	}
	sched.Start()

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		slog.WarnContext(ctx, "scheduler stop timed out", "error", err)
	}

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be processing)
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ██████╗ ██████╗ ██╗   ██╗██████╗ ██╗███████╗██████╗     ██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗███████╗██████╗
██╔════╝██╔═══██╗██║   ██║██╔══██╗██║██╔════╝██╔══██╗    ██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██╔════╝██╔══██╗
██║     ██║   ██║██║   ██║██████╔╝██║█████╗  ██████╔╝    ██║ █╗ ██║██║   ██║██████╔╝█████╔╝ █████╗  ██████╔╝
██║     ██║   ██║██║   ██║██╔══██╗██║██╔══╝  ██╔══██╗    ██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██╔══╝  ██╔══██╗
╚██████╗╚██████╔╝╚██████╔╝██║  ██║██║███████╗██║  ██║    ╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗██║  ██║
 ╚═════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝╚══════╝╚═╝  ╚═╝     ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝
`
