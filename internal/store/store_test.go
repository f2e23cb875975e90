package store

import (
	"context"
	"testing"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newTestStore 在内存 sqlite 上构造 Store。
// 连接池限制为 1，避免每个连接各拿一份独立的 :memory: 数据库。
func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.SetupJoinTable(&model.Todo{}, "Tags", &model.TodoTag{}); err != nil {
		t.Fatalf("join table: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Tag{}, &model.Todo{}, &model.TodoTag{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st := New(db, 5*time.Second)
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

func mustRegister(t *testing.T, st *Store, email string) *model.User {
	t.Helper()
	user, err := st.Users().Register(context.Background(), RegisterInput{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "secret-password",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func mustCreateCategory(t *testing.T, st *Store, name string) *model.Category {
	t.Helper()
	category, err := st.Categories().Create(context.Background(), name, "")
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return category
}

func TestStore_Ping(t *testing.T) {
	st := newTestStore(t)
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
