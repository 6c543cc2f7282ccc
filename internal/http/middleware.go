package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inventory-management/internal/auth"
	"inventory-management/internal/metrics"
)

const claimsKey = "auth.claims"

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}

func observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTPRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
			metrics.RecordRateLimited(c.FullPath())
			c.Header("Retry-After", "5")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// requireAuth accepts only unrevoked access tokens passed as "Authorization: Bearer <token>".
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := h.tokens.ParseAccess(token)
		if err != nil {
			h.logger.WithError(err).Debug("rejecting access token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if err := h.checkRevoked(c, claims); err != nil {
			if errors.Is(err, auth.ErrTokenRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
				return
			}
			h.logger.WithError(err).Error("revocation lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) checkRevoked(c *gin.Context, claims *auth.Claims) error {
	if h.revoked == nil {
		return nil
	}
	revoked, err := h.revoked.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return auth.ErrTokenRevoked
	}
	return nil
}

func (h *Handler) revoke(c *gin.Context, claims *auth.Claims) error {
	if h.revoked == nil || claims.ExpiresAt == nil {
		return nil
	}
	return h.revoked.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
}

// consume revokes the token and fails with ErrTokenRevoked if another request already did.
func (h *Handler) consume(c *gin.Context, claims *auth.Claims) error {
	if h.revoked == nil || claims.ExpiresAt == nil {
		return nil
	}
	ok, err := h.revoked.Consume(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return err
	}
	if !ok {
		return auth.ErrTokenRevoked
	}
	return nil
}

func currentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
