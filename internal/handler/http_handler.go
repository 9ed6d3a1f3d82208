package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/beeline-social/engagement-core/internal/config"
	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/ratelimit"
	"github.com/beeline-social/engagement-core/internal/service"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/pubsub"
	"github.com/beeline-social/engagement-core/pkg/response"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler handles HTTP requests for the engagement core.
type Handler struct {
	graph          service.GraphService
	content        service.ContentService
	ledger         service.LedgerService
	timeline       service.TimelineService
	notifier       service.NotifierService
	live           pubsub.Subscriber
	authMiddleware *middleware.AuthMiddleware
	limiter        *ratelimit.Limiter
	policies       config.RateLimitConfig
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	graph service.GraphService,
	content service.ContentService,
	ledger service.LedgerService,
	timeline service.TimelineService,
	notifier service.NotifierService,
	live pubsub.Subscriber,
	authMiddleware *middleware.AuthMiddleware,
	limiter *ratelimit.Limiter,
	policies config.RateLimitConfig,
) *Handler {
	return &Handler{
		graph:          graph,
		content:        content,
		ledger:         ledger,
		timeline:       timeline,
		notifier:       notifier,
		live:           live,
		authMiddleware: authMiddleware,
		limiter:        limiter,
		policies:       policies,
	}
}

// RegisterRoutes registers all routes onto the Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	auth := h.authMiddleware.RequireAuth()
	followLimit := ratelimit.Middleware(h.limiter, "follow", h.policies.Follow.Policy())
	interactLimit := ratelimit.Middleware(h.limiter, "interact", h.policies.Interact.Policy())
	publishLimit := ratelimit.Middleware(h.limiter, "publish", h.policies.Publish.Policy())
	readLimit := ratelimit.Middleware(h.limiter, "read", h.policies.Read.Policy())

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/:user_id/follow", auth, followLimit, h.Follow)
			users.DELETE("/:user_id/follow", auth, followLimit, h.Unfollow)
			users.GET("/:user_id/following", readLimit, h.GetFollowing)
			users.GET("/:user_id/followers", readLimit, h.GetFollowers)
			users.GET("/:user_id/following/:target_id", readLimit, h.IsFollowing)
			users.GET("/:user_id/content", readLimit, h.ListUserContent)
		}

		content := api.Group("/content")
		{
			content.POST("", auth, publishLimit, h.CreateContent)
			content.GET("/:content_id", readLimit, h.GetContent)
			content.DELETE("/:content_id", auth, h.DeleteContent)
			content.GET("/:content_id/interactions", readLimit, h.ListInteractions)
			content.POST("/:content_id/interactions", auth, interactLimit, h.RecordInteraction)
		}

		interactions := api.Group("/interactions")
		{
			interactions.DELETE("/:interaction_id", auth, interactLimit, h.RemoveInteraction)
			interactions.GET("/:interaction_id/replies", readLimit, h.ListReplies)
		}

		api.GET("/timeline", auth, readLimit, h.HomeTimeline)

		notifications := api.Group("/notifications", auth)
		{
			notifications.GET("", readLimit, h.ListNotifications)
			notifications.GET("/stream", readLimit, h.StreamNotifications)
			notifications.GET("/unread/count", readLimit, h.UnreadCount)
			notifications.POST("/:notification_id/read", h.MarkNotificationRead)
			notifications.DELETE("/:notification_id", h.DeleteNotification)
		}
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// handleError maps service errors onto the HTTP envelope. Unexpected errors
// are logged here once, at the edge.
func handleError(c *gin.Context, l zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCursor):
		response.BadRequest(c, "invalid cursor")
	case errors.Is(err, domain.ErrInvalidOperation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(c, msg+": not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, msg+": forbidden")
	case errors.Is(err, domain.ErrConflict):
		response.Conflict(c, msg+": conflict")
	case errors.Is(err, domain.ErrQuotaExceeded):
		response.TooManyRequests(c, 0, 0)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		response.ServiceUnavailable(c, msg+": temporarily unavailable")
	default:
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}

// pageParams reads limit and cursor query parameters, clamping the limit.
func pageParams(c *gin.Context) (int32, string) {
	limit := int64(defaultPageSize)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 32); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return int32(limit), c.Query("cursor")
}
