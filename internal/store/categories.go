package store

import (
	"context"
	"strings"

	"github.com/kizomanizo/fanya-backend/internal/model"

	"github.com/google/uuid"
)

// CategoryStore 是分类实体的仓库。
type CategoryStore struct {
	s *Store
}

func (st *CategoryStore) repo() repository[model.Category] {
	return repository[model.Category]{s: st.s}
}

// UpdateCategoryInput 部分更新分类的输入。nil 表示保持不变。
type UpdateCategoryInput struct {
	Name        *string
	Description *string
}

// Create 创建分类。同名活跃分类已存在时返回 ErrConflict。
func (st *CategoryStore) Create(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	category := model.Category{
		UUID:        uuid.NewString(),
		Name:        name,
		Description: description,
	}
	if err := st.repo().create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Get 按 UUID 返回活跃分类。
func (st *CategoryStore) Get(ctx context.Context, categoryUUID string) (*model.Category, error) {
	return st.repo().findActive(ctx, categoryUUID)
}

// FindByName 按名称返回活跃分类，主要用于默认分类的兜底查询。
func (st *CategoryStore) FindByName(ctx context.Context, name string) (*model.Category, error) {
	opCtx, cancel := st.s.opCtx(ctx)
	defer cancel()

	var category model.Category
	err := st.s.db.WithContext(opCtx).Where("name = ?", name).First(&category).Error
	if err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// List 返回一页活跃分类。
func (st *CategoryStore) List(ctx context.Context, page Page) ([]model.Category, Meta, error) {
	categories, total, err := st.repo().listActive(ctx, page)
	if err != nil {
		return nil, Meta{}, err
	}
	return categories, NewMeta(total, page), nil
}

// Update 部分更新分类。改名撞上其他活跃分类时返回 ErrConflict。
func (st *CategoryStore) Update(ctx context.Context, categoryUUID string, in UpdateCategoryInput) (*model.Category, error) {
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrValidation
		}
		fields["name"] = name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	return st.repo().update(ctx, categoryUUID, fields)
}

// SoftDelete 软删除分类。二次删除返回 ErrNotFound。
func (st *CategoryStore) SoftDelete(ctx context.Context, categoryUUID string) error {
	return st.repo().softDelete(ctx, categoryUUID)
}
