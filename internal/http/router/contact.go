package router

import (
	"github.com/gin-gonic/gin"

	"outreach.app/courier/internal/http/handler"
)

func ContactRouter(rg *gin.RouterGroup, h *handler.ContactHandler) {
	rg.GET("/lookup", h.Lookup)
	rg.GET("/follow-ups", h.FollowUps)
}
