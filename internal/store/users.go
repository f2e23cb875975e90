package store

import (
	"context"
	"strings"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/password"

	"github.com/google/uuid"
)

// UserStore 是用户实体的仓库。
type UserStore struct {
	s *Store
}

func (st *UserStore) repo() repository[model.User] {
	return repository[model.User]{s: st.s}
}

// RegisterInput 注册新用户的输入。
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateUserInput 部分更新用户的输入。nil 表示保持不变。
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Role      *string
	IsActive  *bool
}

// NormalizeEmail 统一邮箱大小写。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 创建新用户。
//
// 角色固定为 USER（自注册永远不能拿到 ADMIN），账号默认未激活。
// 邮箱冲突先做一次友好预检查，最终以数据库唯一索引为准。
func (st *UserStore) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := NormalizeEmail(in.Email)

	opCtx, cancel := st.s.opCtx(ctx)
	var existing model.User
	err := st.s.db.WithContext(opCtx).Where("email = ?", email).First(&existing).Error
	cancel()
	if err == nil {
		return nil, ErrConflict
	}
	if translated := translate(err); translated != ErrNotFound {
		return nil, translated
	}

	salt, err := password.NewSalt()
	if err != nil {
		return nil, err
	}
	digest, err := password.Hash(in.Password, salt)
	if err != nil {
		return nil, err
	}

	user := model.User{
		UUID:      uuid.NewString(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  digest,
		Salt:      salt,
		Role:      model.RoleUser,
		IsActive:  false,
		JoinDate:  time.Now(),
	}
	if err := st.repo().create(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate 校验邮箱和密码。
//
// 无论邮箱不存在还是密码错误都返回 ErrInvalidCredentials，
// 成功时回填 last_login 并返回用户（摘要和盐由上层负责不外泄）。
func (st *UserStore) Authenticate(ctx context.Context, email, plain string) (*model.User, error) {
	opCtx, cancel := st.s.opCtx(ctx)
	defer cancel()

	var user model.User
	err := st.s.db.WithContext(opCtx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if translated := translate(err); translated == ErrNotFound {
			return nil, ErrInvalidCredentials
		} else {
			return nil, translated
		}
	}
	if !password.Verify(plain, user.Salt, user.Password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	_ = st.s.db.WithContext(opCtx).Model(&user).Update("last_login", now).Error

	return &user, nil
}

// Get 按 UUID 返回活跃用户。
func (st *UserStore) Get(ctx context.Context, userUUID string) (*model.User, error) {
	return st.repo().findActive(ctx, userUUID)
}

// List 返回一页活跃用户。
func (st *UserStore) List(ctx context.Context, page Page) ([]model.User, Meta, error) {
	users, total, err := st.repo().listActive(ctx, page)
	if err != nil {
		return nil, Meta{}, err
	}
	return users, NewMeta(total, page), nil
}

// Update 部分更新用户。
//
// is_active 是布尔直通：传了就用传的值，没传就保持原值。
func (st *UserStore) Update(ctx context.Context, userUUID string, in UpdateUserInput) (*model.User, error) {
	fields := map[string]any{}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*in.Role))
		if role != model.RoleUser && role != model.RoleAdmin {
			return nil, ErrValidation
		}
		fields["role"] = role
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	return st.repo().update(ctx, userUUID, fields)
}

// SoftDelete 软删除用户。二次删除返回 ErrNotFound。
func (st *UserStore) SoftDelete(ctx context.Context, userUUID string) error {
	return st.repo().softDelete(ctx, userUUID)
}
