package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/pubsub"
	"github.com/beeline-social/engagement-core/pkg/response"
)

// StreamNotifications handles GET /api/v1/notifications/stream. It holds the
// connection open and forwards the recipient's live events as server-sent
// events until the client disconnects. Events raised while no stream is open
// are not replayed here; clients catch up from GET /api/v1/notifications.
func (h *Handler) StreamNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	recipientID := middleware.GetUserID(c)
	if recipientID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	channel := pubsub.UserNotificationChannel(recipientID)
	events, err := h.live.Subscribe(ctx, channel)
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldRecipientID, recipientID).
			Msg("failed to open live notification stream")
		response.ServiceUnavailable(c, "live notifications unavailable")
		return
	}
	defer func() {
		if err := h.live.Unsubscribe(ctx, channel); err != nil {
			l.Warn().Err(err).Msg("failed to close live notification stream")
		}
	}()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
