package router

import (
	"github.com/gin-gonic/gin"

	"outreach.app/courier/internal/http/handler"
)

func WebhookRouter(rg *gin.RouterGroup, h *handler.WebhookHandler) {
	rg.POST("/linkedin", h.LinkedIn)
}
