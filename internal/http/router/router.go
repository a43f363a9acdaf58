package router

import (
	"github.com/gin-gonic/gin"

	"outreach.app/courier/internal/http/handler"
	"outreach.app/courier/internal/http/middleware"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
	DefaultSet  model.LabelSet
	SenderName  string
	Health      map[string]handler.Pinger
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	healthHandler := handler.NewHealthHandler(cfg.Health)
	router.GET("/health", healthHandler.Health)

	webhookHandler := handler.NewWebhookHandler(services.Inbound(), cfg.DefaultSet, cfg.SenderName)
	WebhookRouter(router.Group("/webhooks"), webhookHandler)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AdminAuth(cfg.AdminAPIKey))
	{
		contactHandler := handler.NewContactHandler(services.Contacts())
		ContactRouter(v1.Group("/contacts"), contactHandler)
	}
}
