package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/metrics"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserStore 是 Handler 依赖的用户操作子集，测试用桩实现替换。
type UserStore interface {
	Register(ctx context.Context, in store.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// LoginLimiter 登录限流。桶空时直接拒绝而不是排队。
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Handler 提供注册与登录接口。
type Handler struct {
	users     UserStore
	limiter   LoginLimiter
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewHandler 创建 Auth Handler。limiter 可以为 nil（不限流）。
func NewHandler(users UserStore, limiter LoginLimiter, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Handler{
		users:     users,
		limiter:   limiter,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type registerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userPayload struct {
	UUID      string     `json:"uuid"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	JoinDate  time.Time  `json:"join_date"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type customClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// sanitizeUser 去掉口令摘要和盐，只暴露对外字段。
func sanitizeUser(u *model.User) userPayload {
	return userPayload{
		UUID:      u.UUID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		JoinDate:  u.JoinDate,
		LastLogin: u.LastLogin,
	}
}

// Register 创建新用户。
//
// POST /api/v1/users/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error(), "payload": nil})
		return
	}

	user, err := h.users.Register(c.Request.Context(), store.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "email already registered", "payload": nil})
			return
		}
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "storage unavailable", "payload": nil})
			return
		}
		h.logger.Error("register failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "register failed", "payload": nil})
		return
	}

	h.logger.Info("user registered", slog.String("email", user.Email))
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "user registered", "payload": sanitizeUser(user)})
}

// Login 校验用户并返回 JWT。
//
// POST /api/v1/users/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error(), "payload": nil})
		return
	}
	email := store.NormalizeEmail(req.Email)

	if h.limiter != nil {
		ok, err := h.limiter.Allow(c.Request.Context(), email)
		if err != nil {
			// 限流器故障不应挡住登录，记日志后放行
			h.logger.Warn("login limiter failed", slog.String("error", err.Error()))
		} else if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "too many login attempts, try again later", "payload": nil})
			return
		}
	}

	user, err := h.users.Authenticate(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			metrics.LoginFailedTotal.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials", "payload": nil})
			return
		}
		if errors.Is(err, store.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "storage unavailable", "payload": nil})
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "login failed", "payload": nil})
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.logger.Error("sign token failed", slog.String("email", email), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "sign token failed", "payload": nil})
		return
	}

	metrics.LoginSuccessTotal.Inc()
	h.logger.Info("user logged in", slog.String("email", email), slog.String("role", user.Role))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "login successful", "payload": gin.H{
		"token": token,
		"user":  sanitizeUser(user),
	}})
}

func (h *Handler) issueToken(user *model.User) (string, error) {
	claims := customClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UUID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: user.Email,
		Role:  user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}
