package router

import (
	"github.com/gin-gonic/gin"

	"mediabot/internal/handlers"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("health", h.Health)

	api := r.Group("api")
	api.GET("stats", h.Stats)

	if h.WebhookEnabled() {
		r.POST(h.WebhookRoute(), h.Webhook)
	}

	return r
}
