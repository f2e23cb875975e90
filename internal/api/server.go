package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/api/auth"
	"github.com/kizomanizo/fanya-backend/internal/api/middleware"
	"github.com/kizomanizo/fanya-backend/internal/api/scheduler"
	"github.com/kizomanizo/fanya-backend/internal/config"
	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/dedup"
	"github.com/kizomanizo/fanya-backend/internal/pkg/metrics"
	"github.com/kizomanizo/fanya-backend/internal/pkg/notify"
	"github.com/kizomanizo/fanya-backend/internal/pkg/ratelimit"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Server 封装了 API 服务所需的依赖和路由处理。
//
// 它持有存储入口、Redis 客户端、提醒调度器以及 Gin 路由引擎。
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	rdb    *redis.Client
	router *gin.Engine
	sched  *scheduler.Scheduler
	auth   *auth.Handler

	users      UserDirectory
	categories CategoryStore
	todos      TodoStore
}

// UserDirectory 用户管理接口需要的存储操作子集。
type UserDirectory interface {
	Get(ctx context.Context, uuid string) (*model.User, error)
	List(ctx context.Context, page store.Page) ([]model.User, store.Meta, error)
	Update(ctx context.Context, uuid string, in store.UpdateUserInput) (*model.User, error)
	SoftDelete(ctx context.Context, uuid string) error
}

// CategoryStore 分类接口需要的存储操作子集。
type CategoryStore interface {
	Create(ctx context.Context, name, description string) (*model.Category, error)
	Get(ctx context.Context, uuid string) (*model.Category, error)
	List(ctx context.Context, page store.Page) ([]model.Category, store.Meta, error)
	Update(ctx context.Context, uuid string, in store.UpdateCategoryInput) (*model.Category, error)
	SoftDelete(ctx context.Context, uuid string) error
}

// TodoStore 待办接口需要的存储操作子集。
type TodoStore interface {
	Create(ctx context.Context, ownerID uint, in store.CreateTodoInput) (*model.Todo, error)
	Get(ctx context.Context, ownerID uint, uuid string) (*model.Todo, error)
	ListByOwner(ctx context.Context, ownerID uint, page store.Page) ([]model.Todo, store.Meta, error)
	ListByTag(ctx context.Context, ownerID uint, tagName string, page store.Page) ([]model.Todo, store.Meta, error)
	Update(ctx context.Context, ownerID uint, uuid string, in store.UpdateTodoInput) (*model.Todo, error)
	SoftDelete(ctx context.Context, ownerID uint, uuid string) error
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 并执行自动迁移
// 2. 连接 Redis
// 3. 构造提醒调度器与登录限流器
// 4. 初始化 Gin 路由引擎
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.Open(cfg.MySQL.DSN, cfg.App.StoreTimeout)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	emailNotifier := notify.NewEmailNotifier(&cfg.Email, logger)
	guard := dedup.NewGuard(rdb, cfg.App.ReminderWindow)
	sched := scheduler.NewScheduler(
		st.Todos(),
		guard,
		emailNotifier,
		logger,
		cfg.App.ReminderInterval,
		cfg.App.ReminderWindow,
		cfg.App.WorkerPoolSize,
		cfg.App.QueueCapacity,
	)
	loginLimiter := ratelimit.NewRedisLimiter(rdb, logger, "fanya:ratelimit:login:",
		cfg.App.LoginRateLimit, cfg.App.LoginRateBurst)

	metrics.InitMetrics(cfg.App.WorkerPoolSize)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		rdb:        rdb,
		router:     r,
		sched:      sched,
		auth:       auth.NewHandler(st.Users(), loginLimiter, cfg.Security.JWTSecret, cfg.Security.TokenTTL, logger),
		users:      st.Users(),
		categories: st.Categories(),
		todos:      st.Todos(),
	}
	s.registerRoutes()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// StartScheduler 启动提醒调度器。
func (s *Server) StartScheduler(ctx context.Context) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("PANIC in reminder scheduler", slog.Any("panic", r))
			}
		}()
		s.sched.Run(ctx)
	}()
}

// Close 关闭数据库与缓存连接。
func (s *Server) Close() error {
	var firstErr error
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	// Prometheus metrics 端点
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/healthz", s.handleHealthz)

	v1 := s.router.Group("/api/v1")

	v1.POST("/users/register", s.auth.Register)
	v1.POST("/users/login", s.auth.Login)

	authed := v1.Group("/")
	authed.Use(middleware.AuthMiddleware(s.cfg.Security.JWTSecret))

	authed.GET("/users/me", s.handleCurrentUser)

	// 用户与分类的写操作只开放给管理员
	admin := authed.Group("/")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/users", s.handleListUsers)
	admin.GET("/users/:uuid", s.handleGetUser)
	admin.PATCH("/users/:uuid", s.handleUpdateUser)
	admin.DELETE("/users/:uuid", s.handleDeleteUser)
	admin.POST("/categories", s.handleCreateCategory)
	admin.PATCH("/categories/:uuid", s.handleUpdateCategory)
	admin.DELETE("/categories/:uuid", s.handleDeleteCategory)

	authed.GET("/categories", s.handleListCategories)
	authed.GET("/categories/:uuid", s.handleGetCategory)

	authed.POST("/todos", s.handleCreateTodo)
	authed.GET("/todos", s.handleListTodos)
	authed.GET("/todos/tag/:name", s.handleListTodosByTag)
	authed.GET("/todos/:uuid", s.handleGetTodo)
	authed.PATCH("/todos/:uuid", s.handleUpdateTodo)
	authed.DELETE("/todos/:uuid", s.handleDeleteTodo)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.store == nil || s.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// currentUser 根据令牌里的 UUID 加载发起请求的用户。
// 令牌有效但用户已被删除时按未认证处理。
func (s *Server) currentUser(c *gin.Context) (*model.User, bool) {
	uuid := c.GetString("userUUID")
	if uuid == "" {
		respond(c, http.StatusUnauthorized, "missing identity", nil)
		return nil, false
	}
	user, err := s.users.Get(c.Request.Context(), uuid)
	if err != nil {
		respond(c, http.StatusUnauthorized, "account no longer active", nil)
		return nil, false
	}
	return user, true
}

// pageFromQuery 解析 ?page= 和 ?limit=，非法值回落到配置的默认区间。
func (s *Server) pageFromQuery(c *gin.Context) store.Page {
	return store.NewPage(
		parseQueryInt(c, "page", 1),
		parseQueryInt(c, "limit", 0),
		s.cfg.App.DefaultPageSize,
		s.cfg.App.MaxPageSize,
	)
}

func parseQueryInt(c *gin.Context, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	iv, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return iv
}
