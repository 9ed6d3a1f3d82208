package handler

import (
	"github.com/gin-gonic/gin"

	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/response"
)

// ListNotifications handles GET /api/v1/notifications.
func (h *Handler) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()

	recipientID := middleware.GetUserID(c)
	if recipientID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	limit, cursor := pageParams(c)
	page, err := h.notifier.List(ctx, recipientID, limit, cursor)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to list notifications")
		return
	}
	response.Success(c, page)
}

// UnreadCount handles GET /api/v1/notifications/unread/count.
func (h *Handler) UnreadCount(c *gin.Context) {
	ctx := c.Request.Context()

	recipientID := middleware.GetUserID(c)
	if recipientID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	count, err := h.notifier.UnreadCount(ctx, recipientID)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to count unread notifications")
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead handles POST /api/v1/notifications/:notification_id/read.
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	ctx := c.Request.Context()

	recipientID := middleware.GetUserID(c)
	if recipientID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.notifier.MarkRead(ctx, recipientID, c.Param("notification_id")); err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to mark notification read")
		return
	}
	response.Success(c, gin.H{"message": "notification marked read"})
}

// DeleteNotification handles DELETE /api/v1/notifications/:notification_id.
func (h *Handler) DeleteNotification(c *gin.Context) {
	ctx := c.Request.Context()

	recipientID := middleware.GetUserID(c)
	if recipientID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.notifier.Delete(ctx, recipientID, c.Param("notification_id")); err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to delete notification")
		return
	}
	response.Success(c, gin.H{"message": "notification deleted"})
}
