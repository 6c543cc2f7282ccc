package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"inventory-management/internal/auth"
	"inventory-management/internal/domain"
	"inventory-management/internal/ratelimit"
	"inventory-management/internal/service"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	tokens  *auth.TokenManager
	revoked auth.RevocationStore
	limiter *ratelimit.Limiter
	db      Pinger
	logger  logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	tokens *auth.TokenManager,
	revoked auth.RevocationStore,
	limiter *ratelimit.Limiter,
	db Pinger,
	logger logrus.FieldLogger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		limiter: limiter,
		db:      db,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.requestLogger(), observeRequests(), corsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", h.health)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.rateLimit(), h.login)
		authGroup.POST("/refresh", h.rateLimit(), h.refresh)
		authGroup.POST("/logout", h.requireAuth(), h.logout)

		users := api.Group("/users", h.requireAuth())
		users.GET("", h.listUsers)
		users.GET("/me", h.me)
		users.GET("/:id", h.getUser)
		users.PATCH("/:id", h.updateUser)
		users.DELETE("/:id", h.deleteUser)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WithError(err).Warn("health check: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail maps service errors onto status codes; unexpected errors are logged and hidden from the client.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Exp          int64  `json:"exp"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func pageToResponse(page domain.UserPage) UserListResponse {
	resp := UserListResponse{
		Users: make([]UserResponse, len(page.Users)),
		Total: page.Total,
		Page:  page.Page,
		Size:  page.Size,
	}
	for i := range page.Users {
		resp.Users[i] = userToResponse(page.Users[i])
	}
	return resp
}

func pairToResponse(pair auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		Exp:          int64(pair.AccessTTL / time.Second),
	}
}
