package ratelimit

import (
	"math"

	"github.com/gin-gonic/gin"

	"github.com/beeline-social/engagement-core/pkg/middleware"
	"github.com/beeline-social/engagement-core/pkg/response"
)

// Middleware returns a gin handler enforcing the given policy on one route
// group. Authenticated requests are counted per user; anonymous ones fall
// back to the client IP, so unauthenticated endpoints still get a stable
// identity to meter.
func Middleware(limiter *Limiter, route string, policy Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetUserID(c)
		if identity == "" {
			identity = c.ClientIP()
		}

		decision := limiter.Admit(c.Request.Context(), identity, route, policy)
		if !decision.Allowed {
			resetSeconds := int(math.Ceil(decision.ResetAfter.Seconds()))
			response.TooManyRequests(c, int(decision.Remaining), resetSeconds)
			c.Abort()
			return
		}
		c.Next()
	}
}
