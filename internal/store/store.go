package store

import (
	"context"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Store 持有数据库连接，是所有实体仓库的入口。
//
// 进程启动时构造一次，显式注入到各个使用方，不在别处重复建连。
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// Open 连接 MySQL、执行自动迁移并返回 Store。
//
// TranslateError 让驱动的唯一键冲突统一成 gorm.ErrDuplicatedKey，
// 这是 ErrConflict 翻译的前提。
func Open(dsn string, timeout time.Duration) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.SetupJoinTable(&model.Todo{}, "Tags", &model.TodoTag{}); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Tag{}, &model.Todo{}, &model.TodoTag{}); err != nil {
		return nil, err
	}
	return New(db, timeout), nil
}

// New 用已有连接构造 Store（测试用 sqlite 连接走这里）。
func New(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// Users 返回用户仓库。
func (s *Store) Users() *UserStore {
	return &UserStore{s: s}
}

// Categories 返回分类仓库。
func (s *Store) Categories() *CategoryStore {
	return &CategoryStore{s: s}
}

// Todos 返回 Todo 仓库。
func (s *Store) Todos() *TodoStore {
	return &TodoStore{s: s}
}

// Ping 用于健康检查。
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// DB 暴露底层连接给播种和调度器等基础设施代码。
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close 关闭底层连接池。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// opCtx 给单次存储调用加上有界超时，防止任何操作无限阻塞。
func (s *Store) opCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.timeout)
}
