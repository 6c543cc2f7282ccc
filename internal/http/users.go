package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inventory-management/internal/domain"
	"inventory-management/internal/service"
)

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), currentClaims(c).Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) listUsers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(service.DefaultPage)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(service.DefaultPageSize)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
		return
	}

	result, err := h.users.List(c.Request.Context(), page, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pageToResponse(*result))
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsResource(c, id) {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, domain.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsResource(c, id) {
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	// the caller's session dies with the account
	if err := h.revoke(c, currentClaims(c)); err != nil {
		h.logger.WithError(err).Warn("revoke token of deleted user")
	}

	h.logger.WithField("user_id", id).Info("user deleted")
	c.Status(http.StatusNoContent)
}

func (h *Handler) ownsResource(c *gin.Context, id string) bool {
	if claims := currentClaims(c); claims == nil || claims.Subject != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}
