package handler

import (
	"github.com/gin-gonic/gin"

	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/response"
)

type createContentRequest struct {
	Caption  string `json:"caption"`
	MediaURL string `json:"media_url"`
}

// CreateContent handles POST /api/v1/content.
func (h *Handler) CreateContent(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	ownerID := middleware.GetUserID(c)
	if ownerID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	item, err := h.content.Create(ctx, ownerID, req.Caption, req.MediaURL)
	if err != nil {
		handleError(c, l, err, "failed to create content")
		return
	}
	response.Created(c, item)
}

// GetContent handles GET /api/v1/content/:content_id.
func (h *Handler) GetContent(c *gin.Context) {
	ctx := c.Request.Context()

	item, err := h.content.Get(ctx, c.Param("content_id"))
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to get content")
		return
	}
	response.Success(c, item)
}

// DeleteContent handles DELETE /api/v1/content/:content_id.
// Only the owner may delete.
func (h *Handler) DeleteContent(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID := middleware.GetUserID(c)
	if actorID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.content.Delete(ctx, c.Param("content_id"), actorID); err != nil {
		handleError(c, l, err, "failed to delete content")
		return
	}
	response.Success(c, gin.H{"message": "content deleted"})
}

// ListUserContent handles GET /api/v1/users/:user_id/content.
func (h *Handler) ListUserContent(c *gin.Context) {
	ctx := c.Request.Context()

	limit, cursor := pageParams(c)
	page, err := h.content.ListByOwner(ctx, c.Param("user_id"), limit, cursor)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to list content")
		return
	}
	response.Success(c, page)
}

// HomeTimeline handles GET /api/v1/timeline.
// Aggregates the newest content across everyone the caller follows.
func (h *Handler) HomeTimeline(c *gin.Context) {
	ctx := c.Request.Context()

	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	limit, _ := pageParams(c)
	items, err := h.timeline.HomeTimeline(ctx, userID, limit)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to build timeline")
		return
	}
	response.Success(c, gin.H{"items": items})
}
