package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediabot/internal/models"
)

type Handler struct {
	stats        StatsProvider
	webhook      WebhookParser
	webhookRoute string
	dispatch     Dispatcher
	webhookCtx   context.Context
	Log          *slog.Logger
}

// StatsProvider returns nil totals when the journal is disabled.
type StatsProvider interface {
	Totals(ctx context.Context) (*models.Totals, error)
	ActiveSessions() int
	RunningBatches() int
}

type WebhookParser interface {
	ParseWebhook(r *http.Request) (models.Event, bool, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.Event)
}

func NewHandler(stats StatsProvider, log *slog.Logger) *Handler {
	return &Handler{
		stats: stats,
		Log:   log,
	}
}

// WithWebhook enables the Telegram webhook on route. ctx outlives individual requests.
func (h *Handler) WithWebhook(ctx context.Context, route string, p WebhookParser, d Dispatcher) *Handler {
	h.webhook = p
	h.webhookRoute = route
	h.dispatch = d
	h.webhookCtx = ctx

	return h
}

func (h *Handler) WebhookEnabled() bool {
	return h.webhook != nil && h.dispatch != nil && h.webhookRoute != ""
}

func (h *Handler) WebhookRoute() string {
	return h.webhookRoute
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Stats(c *gin.Context) {
	res := models.StatsResponse{
		ActiveSessions: h.stats.ActiveSessions(),
		RunningBatches: h.stats.RunningBatches(),
	}

	totals, err := h.stats.Totals(c.Request.Context())
	if err != nil {
		h.Log.Error("failed to read totals", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}
	res.Journal = totals

	c.JSON(http.StatusOK, res)
}

func (h *Handler) Webhook(c *gin.Context) {
	ev, ok, err := h.webhook.ParseWebhook(c.Request)
	if err != nil {
		h.Log.Error("invalid request", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Request: c.Request.URL.Path,
			Error:   err.Error(),
		})
		return
	}

	if ok {
		h.dispatch.Dispatch(h.webhookCtx, ev)
	}

	c.Status(http.StatusOK)
}
