package store

import (
	"context"
	"strings"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TodoStore 是待办实体的仓库。所有读写都以所有者为作用域。
type TodoStore struct {
	s *Store
}

func (st *TodoStore) repo() repository[model.Todo] {
	return repository[model.Todo]{s: st.s}
}

// CreateTodoInput 创建待办的输入。CategoryUUID 为空时落到默认分类。
type CreateTodoInput struct {
	Title        string
	Description  string
	DueDate      *time.Time
	CategoryUUID string
	Tags         []string
}

// UpdateTodoInput 部分更新待办的输入。nil 表示保持不变。
// Tags 非 nil 时整体替换标签集合（空切片表示清空）。
type UpdateTodoInput struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	Completed    *bool
	CategoryUUID *string
	Tags         *[]string
}

// Create 为指定用户创建待办，并在同一事务里挂接标签。
func (st *TodoStore) Create(ctx context.Context, ownerID uint, in CreateTodoInput) (*model.Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrValidation
	}

	category, err := st.resolveCategory(ctx, in.CategoryUUID)
	if err != nil {
		return nil, err
	}

	todo := model.Todo{
		UUID:        uuid.NewString(),
		Title:       title,
		Description: in.Description,
		DueDate:     in.DueDate,
		UserID:      ownerID,
		CategoryID:  category.ID,
	}

	opCtx, cancel := st.s.opCtx(ctx)
	defer cancel()
	err = st.s.db.WithContext(opCtx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&todo).Error; err != nil {
			return err
		}
		return attachTags(tx, todo.ID, in.Tags)
	})
	if err != nil {
		return nil, translate(err)
	}
	return st.Get(ctx, ownerID, todo.UUID)
}

// resolveCategory 把请求里的分类 UUID 解析成活跃分类；
// 没传 UUID 时使用默认分类，默认分类缺失视为 NotFound。
func (st *TodoStore) resolveCategory(ctx context.Context, categoryUUID string) (*model.Category, error) {
	if categoryUUID != "" {
		return st.s.Categories().Get(ctx, categoryUUID)
	}
	return st.s.Categories().FindByName(ctx, model.DefaultCategoryName)
}

// attachTags 按名称查找或创建标签，并把待办与标签关联起来。
//
// 标签和关联行都用 ON CONFLICT DO NOTHING 做幂等 upsert，
// 并发创建同名标签或重复挂接都不会报错。
func attachTags(tx *gorm.DB, todoID uint, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		tag := model.Tag{UUID: uuid.NewString(), Name: name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&tag).Error; err != nil {
			return err
		}
		if tag.ID == 0 {
			// 冲突跳过时拿不到 ID，回查一次
			if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
				return err
			}
		}

		link := model.TodoTag{TodoID: todoID, TagID: tag.ID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "todo_id"}, {Name: "tag_id"}},
			DoNothing: true,
		}).Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func withTodoAssociations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Tags")
}

func ownedBy(ownerID uint) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", ownerID)
	}
}

// Get 按 UUID 返回待办。存在但不属于调用者时返回 ErrForbidden。
func (st *TodoStore) Get(ctx context.Context, ownerID uint, todoUUID string) (*model.Todo, error) {
	todo, err := st.repo().findActive(ctx, todoUUID, withTodoAssociations)
	if err != nil {
		return nil, err
	}
	if todo.UserID != ownerID {
		return nil, ErrForbidden
	}
	return todo, nil
}

// ListByOwner 返回调用者自己的一页待办。
func (st *TodoStore) ListByOwner(ctx context.Context, ownerID uint, page Page) ([]model.Todo, Meta, error) {
	todos, total, err := st.repo().listActive(ctx, page, ownedBy(ownerID), withTodoAssociations)
	if err != nil {
		return nil, Meta{}, err
	}
	return todos, NewMeta(total, page), nil
}

// ListByTag 返回调用者名下挂有指定标签的一页待办。
// 标签不存在或没有命中时返回空页，不算错误。
func (st *TodoStore) ListByTag(ctx context.Context, ownerID uint, tagName string, page Page) ([]model.Todo, Meta, error) {
	opCtx, cancel := st.s.opCtx(ctx)
	defer cancel()

	base := st.s.db.WithContext(opCtx).Model(&model.Todo{}).
		Joins("JOIN todo_tags ON todo_tags.todo_id = todos.id").
		Joins("JOIN tags ON tags.id = todo_tags.tag_id").
		Where("tags.name = ?", tagName).
		Where("todos.user_id = ?", ownerID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, Meta{}, translate(err)
	}

	var todos []model.Todo
	err := base.Session(&gorm.Session{}).
		Scopes(withTodoAssociations).
		Order("todos.id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&todos).Error
	if err != nil {
		return nil, Meta{}, translate(err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, NewMeta(total, page), nil
}

// ListDueBetween 返回截止时间落在窗口内、未完成的待办，供提醒扫描使用。
func (st *TodoStore) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Todo, error) {
	opCtx, cancel := st.s.opCtx(ctx)
	defer cancel()

	var todos []model.Todo
	err := st.s.db.WithContext(opCtx).
		Preload("User").
		Where("completed = ?", false).
		Where("due_date IS NOT NULL AND due_date BETWEEN ? AND ?", from, to).
		Order("due_date ASC").
		Find(&todos).Error
	if err != nil {
		return nil, translate(err)
	}
	return todos, nil
}

// Update 部分更新待办。非所有者返回 ErrForbidden。
func (st *TodoStore) Update(ctx context.Context, ownerID uint, todoUUID string, in UpdateTodoInput) (*model.Todo, error) {
	todo, err := st.Get(ctx, ownerID, todoUUID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrValidation
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.DueDate != nil {
		fields["due_date"] = *in.DueDate
	}
	if in.Completed != nil {
		fields["completed"] = *in.Completed
	}
	if in.CategoryUUID != nil {
		category, err := st.s.Categories().Get(ctx, *in.CategoryUUID)
		if err != nil {
			return nil, err
		}
		fields["category_id"] = category.ID
	}

	opCtx, cancel := st.s.opCtx(ctx)
	defer cancel()
	err = st.s.db.WithContext(opCtx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&model.Todo{}).Where("id = ?", todo.ID).Updates(fields).Error; err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if err := tx.Where("todo_id = ?", todo.ID).Delete(&model.TodoTag{}).Error; err != nil {
				return err
			}
			return attachTags(tx, todo.ID, *in.Tags)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return st.Get(ctx, ownerID, todoUUID)
}

// SoftDelete 软删除待办。非所有者返回 ErrForbidden，二次删除返回 ErrNotFound。
// 关联的标签行跟着待办一起隐藏，标签本身保留。
func (st *TodoStore) SoftDelete(ctx context.Context, ownerID uint, todoUUID string) error {
	if _, err := st.Get(ctx, ownerID, todoUUID); err != nil {
		return err
	}
	return st.repo().softDelete(ctx, todoUUID)
}
