package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/beeline-social/engagement-core/internal/domain"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/response"
)

type recordInteractionRequest struct {
	Kind     string `json:"kind" binding:"required"`
	Body     string `json:"body"`
	ParentID string `json:"parent_interaction_id"`
}

// RecordInteraction handles POST /api/v1/content/:content_id/interactions.
func (h *Handler) RecordInteraction(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID := middleware.GetUserID(c)
	if actorID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req recordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	in, err := h.ledger.Record(ctx, actorID, domain.InteractionKind(req.Kind), c.Param("content_id"), req.Body, req.ParentID)
	if err != nil {
		handleError(c, l, err, "failed to record interaction")
		return
	}
	response.Created(c, in)
}

// RemoveInteraction handles DELETE /api/v1/interactions/:interaction_id.
// Only the interaction's own actor may remove it.
func (h *Handler) RemoveInteraction(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	actorID := middleware.GetUserID(c)
	if actorID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.ledger.Remove(ctx, actorID, c.Param("interaction_id")); err != nil {
		handleError(c, l, err, "failed to remove interaction")
		return
	}
	response.Success(c, gin.H{"message": "interaction removed"})
}

// ListInteractions handles GET /api/v1/content/:content_id/interactions.
// An optional kind query parameter narrows the listing.
func (h *Handler) ListInteractions(c *gin.Context) {
	ctx := c.Request.Context()

	limit, cursor := pageParams(c)
	kind := domain.InteractionKind(c.Query("kind"))
	page, err := h.ledger.ListForTarget(ctx, c.Param("content_id"), kind, limit, cursor)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to list interactions")
		return
	}
	response.Success(c, page)
}

// ListReplies handles GET /api/v1/interactions/:interaction_id/replies.
func (h *Handler) ListReplies(c *gin.Context) {
	ctx := c.Request.Context()

	limit, cursor := pageParams(c)
	page, err := h.ledger.ListReplies(ctx, c.Param("interaction_id"), limit, cursor)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to list replies")
		return
	}
	response.Success(c, page)
}
