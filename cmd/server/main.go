package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"outreach.app/courier/common/id"
	"outreach.app/courier/common/llm"
	"outreach.app/courier/common/logger"
	"outreach.app/courier/common/otel"
	"outreach.app/courier/core/config"
	"outreach.app/courier/core/db"
	"outreach.app/courier/internal/classifier"
	"outreach.app/courier/internal/drafts"
	"outreach.app/courier/internal/http/handler"
	"outreach.app/courier/internal/http/middleware"
	httprouter "outreach.app/courier/internal/http/router"
	"outreach.app/courier/internal/lock"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/service"
	"outreach.app/courier/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		// Logger is not set up yet when OTel fails
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "courier starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	health := map[string]handler.Pinger{"database": database}

	// Without Redis the identity lock only covers this process.
	locker := lock.NewLocalLocker(cfg.Redis.LockWait)
	if cfg.Redis.Enabled() {
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
		slog.InfoContext(ctx, "redis connected")

		locker = lock.NewRedisLocker(redisClient, cfg.Redis.LockTTL, cfg.Redis.LockWait, slog.Default())
		health["redis"] = redisPinger{redisClient}
	} else {
		slog.WarnContext(ctx, "redis disabled, using in-process identity lock")
	}

	llmClient, err := llm.New(llm.Config{
		Provider:  cfg.ClassifierLLM.Provider,
		APIKey:    cfg.ClassifierLLM.APIKey,
		BaseURL:   cfg.ClassifierLLM.BaseURL,
		Model:     cfg.ClassifierLLM.Model,
		MaxTokens: cfg.ClassifierLLM.MaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	classifierCfg := classifier.Config{
		RPS:     cfg.ClassifierLLM.RPS,
		Timeout: cfg.ExternalCallTimeout,
	}
	if cfg.ClassifierLLM.DateResolver == "rules" {
		classifierCfg.Dates = classifier.RulesDateResolver{}
	}
	slog.InfoContext(ctx, "classifier configured",
		"provider", cfg.ClassifierLLM.Provider,
		"model", llmClient.Model(),
		"date_resolver", cfg.ClassifierLLM.DateResolver)

	notifier := notify.NewSlackNotifier(cfg.Slack, cfg.ExternalCallTimeout, slog.Default())
	composer := drafts.NewComposer(cfg.Drafts, cfg.ExternalCallTimeout, slog.Default())

	defaultSet, err := model.LabelSetByName(cfg.Campaign.DefaultLabelSet)
	if err != nil {
		slog.ErrorContext(ctx, "invalid campaign label set", "error", err)
		os.Exit(1)
	}

	services := service.NewServices(store.NewStores(database.Conn()), service.ServicesConfig{
		Classifier:  classifier.New(llmClient, classifierCfg),
		Notifier:    notifier,
		Drafts:      composer,
		Locker:      locker,
		CallTimeout: cfg.ExternalCallTimeout,
		Logger:      slog.Default(),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, httprouter.RouterConfig{
		AdminAPIKey: cfg.AdminAPIKey,
		DefaultSet:  defaultSet,
		SenderName:  cfg.Campaign.SenderName,
		Health:      health,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Reply handling makes several model calls in sequence.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, routerCfg httprouter.RouterConfig) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, routerCfg)

	return router
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

const banner = `
 ██████╗ ██████╗ ██╗   ██╗██████╗ ██╗███████╗██████╗
██╔════╝██╔═══██╗██║   ██║██╔══██╗██║██╔════╝██╔══██╗
██║     ██║   ██║██║   ██║██████╔╝██║█████╗  ██████╔╝
██║     ██║   ██║██║   ██║██╔══██╗██║██╔══╝  ██╔══██╗
╚██████╗╚██████╔╝╚██████╔╝██║  ██║██║███████╗██║  ██║
 ╚═════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝╚═╝╚══════╝╚═╝  ╚═╝
`
