package middleware

import (
	"net/http"

	"lokapasar-be/internal/auth"
	"lokapasar-be/internal/identity"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const HeaderSessionToken = "X-Session-Token"

// Identify resolves who is making the request: a valid JWT wins, otherwise
// the anonymous session token is validated or a fresh one issued. Every
// request ends up with exactly one identity in its context.
func Identify(tokens *auth.Manager, sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if raw := auth.ExtractAccessToken(c.Request); raw != "" {
			if claims, err := tokens.Parse(raw); err == nil {
				ctx = identity.WithContext(ctx, identity.Buyer(claims.UserID))
				c.Request = c.Request.WithContext(ctx)
				c.Next()
				return
			}
			logger.FromCtx(ctx).Debug("rejecting invalid access token")
		}

		token := c.GetHeader(HeaderSessionToken)
		if token == "" || !sessions.Validate(token) {
			fresh, err := sessions.Issue()
			if err != nil {
				logger.FromCtx(ctx).Error("failed to issue session token", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			token = fresh
		}

		// echoed back so the client can carry it across requests
		c.Header(HeaderSessionToken, token)

		ctx = identity.WithContext(ctx, identity.Anonymous(token))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth aborts anonymous requests. Mount after Identify on routes that
// only make sense for an account, like the order history.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity.FromContext(c.Request.Context())
		if !ok || !id.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
