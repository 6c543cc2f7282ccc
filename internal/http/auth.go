package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"inventory-management/internal/auth"
	"inventory-management/internal/metrics"
	"inventory-management/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	metrics.RecordAuthEvent("register", err == nil)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, gin.H{"message": "user created successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	metrics.RecordAuthEvent("login", err == nil)
	if err != nil {
		h.fail(c, err)
		return
	}

	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, pairToResponse(pair))
}

// refresh rotates a refresh token: the presented one is revoked and a new pair is issued.
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		metrics.RecordAuthEvent("refresh", false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	// claiming the jti up front makes each refresh token single-use under concurrency
	if err := h.consume(c, claims); err != nil {
		metrics.RecordAuthEvent("refresh", false)
		if errors.Is(err, auth.ErrTokenRevoked) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}
		h.fail(c, err)
		return
	}

	user, err := h.users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		metrics.RecordAuthEvent("refresh", false)
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		h.fail(c, err)
		return
	}

	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	metrics.RecordAuthEvent("refresh", true)
	c.JSON(http.StatusOK, pairToResponse(pair))
}

func (h *Handler) logout(c *gin.Context) {
	claims := currentClaims(c)

	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.RefreshToken != "" {
		refresh, err := h.tokens.ParseRefresh(req.RefreshToken)
		if err != nil || refresh.Subject != claims.Subject {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refresh token"})
			return
		}
		if err := h.revoke(c, refresh); err != nil {
			h.fail(c, err)
			return
		}
	}

	if err := h.revoke(c, claims); err != nil {
		h.fail(c, err)
		return
	}

	metrics.RecordAuthEvent("logout", true)
	c.Status(http.StatusNoContent)
}
