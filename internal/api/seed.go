package api

import (
	"context"
	"errors"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/password"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// defaultCategories 首次启动时写入的基础分类。
var defaultCategories = []struct {
	name        string
	description string
}{
	{model.DefaultCategoryName, "Default category for uncategorized todos"},
	{"Work", "Work related todos"},
	{"Personal", "Personal todos"},
}

// Seed 写入基础分类和初始管理员。幂等，重启多少次都只有一份数据。
func (s *Server) Seed(ctx context.Context) error {
	for _, seed := range defaultCategories {
		_, err := s.store.Categories().FindByName(ctx, seed.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := s.store.Categories().Create(ctx, seed.name, seed.description); err != nil {
			// 并发启动的另一个副本可能刚好插入了同名分类
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return err
		}
		s.logger.Info("seeded category", slog.String("name", seed.name))
	}

	return s.seedInitialAdmin(ctx)
}

// seedInitialAdmin 根据配置创建初始管理员账号。
// 未配置邮箱或口令时跳过，已存在同邮箱用户时保持不动。
func (s *Server) seedInitialAdmin(ctx context.Context) error {
	email := store.NormalizeEmail(s.cfg.Security.InitialAdminEmail)
	pass := s.cfg.Security.InitialAdminPass
	if email == "" || pass == "" {
		s.logger.Info("initial admin not configured, skip")
		return nil
	}

	db := s.store.DB().WithContext(ctx)

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	salt, err := password.NewSalt()
	if err != nil {
		return err
	}
	digest, err := password.Hash(pass, salt)
	if err != nil {
		return err
	}

	admin := model.User{
		UUID:      uuid.NewString(),
		FirstName: "System",
		LastName:  "Admin",
		Email:     email,
		Password:  digest,
		Salt:      salt,
		Role:      model.RoleAdmin,
		IsActive:  true,
		JoinDate:  time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	s.logger.Info("seeded initial admin", slog.String("email", email))
	return nil
}
