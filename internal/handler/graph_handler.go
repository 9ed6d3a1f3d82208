package handler

import (
	"github.com/gin-gonic/gin"

	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/response"
)

// Follow handles POST /api/v1/users/:user_id/follow.
// The authenticated user follows the target user.
func (h *Handler) Follow(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	followerID := middleware.GetUserID(c)
	if followerID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	targetID := c.Param("user_id")
	if targetID == "" {
		response.BadRequest(c, "user_id is required")
		return
	}

	if err := h.graph.Follow(ctx, followerID, targetID); err != nil {
		handleError(c, l, err, "failed to follow user")
		return
	}
	response.Created(c, gin.H{"message": "followed successfully"})
}

// Unfollow handles DELETE /api/v1/users/:user_id/follow.
func (h *Handler) Unfollow(c *gin.Context) {
	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx)

	followerID := middleware.GetUserID(c)
	if followerID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	targetID := c.Param("user_id")
	if targetID == "" {
		response.BadRequest(c, "user_id is required")
		return
	}

	if err := h.graph.Unfollow(ctx, followerID, targetID); err != nil {
		handleError(c, l, err, "failed to unfollow user")
		return
	}
	response.Success(c, gin.H{"message": "unfollowed successfully"})
}

// GetFollowing handles GET /api/v1/users/:user_id/following.
func (h *Handler) GetFollowing(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.Param("user_id")
	following, err := h.graph.GetFollowing(ctx, userID)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to get following")
		return
	}
	response.Success(c, gin.H{"user_id": userID, "following": following})
}

// GetFollowers handles GET /api/v1/users/:user_id/followers.
func (h *Handler) GetFollowers(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.Param("user_id")
	followers, err := h.graph.GetFollowers(ctx, userID)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to get followers")
		return
	}
	response.Success(c, gin.H{"user_id": userID, "followers": followers})
}

// IsFollowing handles GET /api/v1/users/:user_id/following/:target_id.
func (h *Handler) IsFollowing(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.Param("user_id")
	targetID := c.Param("target_id")
	following, err := h.graph.IsFollowing(ctx, userID, targetID)
	if err != nil {
		handleError(c, pkglog.Ctx(ctx), err, "failed to check follow status")
		return
	}
	response.Success(c, gin.H{"following": following})
}
