package store

import (
	"context"

	"gorm.io/gorm"
)

// scope 是附加在查询上的过滤条件。
type scope func(*gorm.DB) *gorm.DB

// repository 提供所有软删除实体共用的 CRUD 语义。
//
// 软删除过滤由模型上的 soft_delete.DeletedAt 字段自动完成：
// 常规查询永远看不到已删除的行，Delete 只是写入删除时间戳。
type repository[T any] struct {
	s *Store
}

// findActive 按对外 UUID 查找活跃实体。
func (r repository[T]) findActive(ctx context.Context, uuid string, scopes ...scope) (*T, error) {
	opCtx, cancel := r.s.opCtx(ctx)
	defer cancel()

	q := r.s.db.WithContext(opCtx)
	for _, sc := range scopes {
		q = sc(q)
	}
	var entity T
	if err := q.Where("uuid = ?", uuid).First(&entity).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

// listActive 返回一页活跃实体及过滤后的总数。
//
// 按主键升序排序（即插入顺序），保证翻页结果稳定。
// 超出范围的页号返回空切片而不是错误。
func (r repository[T]) listActive(ctx context.Context, page Page, scopes ...scope) ([]T, int64, error) {
	opCtx, cancel := r.s.opCtx(ctx)
	defer cancel()

	var entity T
	base := r.s.db.WithContext(opCtx).Model(&entity)
	for _, sc := range scopes {
		base = sc(base)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	entities := []T{}
	err := base.Session(&gorm.Session{}).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&entities).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return entities, total, nil
}

// create 持久化新实体；活跃行之间的唯一约束冲突返回 ErrConflict。
func (r repository[T]) create(ctx context.Context, entity *T) error {
	opCtx, cancel := r.s.opCtx(ctx)
	defer cancel()

	return translate(r.s.db.WithContext(opCtx).Create(entity).Error)
}

// update 对活跃实体做部分更新。
//
// fields 里出现什么就改什么：显式的 false / 空串与“未提供”是两回事，
// 语义和调用方用指针字段组 map 的约定配套。
func (r repository[T]) update(ctx context.Context, uuid string, fields map[string]any) (*T, error) {
	opCtx, cancel := r.s.opCtx(ctx)
	defer cancel()

	var entity T
	if err := r.s.db.WithContext(opCtx).Where("uuid = ?", uuid).First(&entity).Error; err != nil {
		return nil, translate(err)
	}
	if len(fields) > 0 {
		err := r.s.db.WithContext(opCtx).Model(&entity).Where("uuid = ?", uuid).Updates(fields).Error
		if err != nil {
			return nil, translate(err)
		}
	}
	if err := r.s.db.WithContext(opCtx).Where("uuid = ?", uuid).First(&entity).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

// softDelete 写入删除时间戳。
//
// 对已删除实体再次删除返回 ErrNotFound 而不是静默成功，
// 这是刻意选择的语义并有测试锁定。
func (r repository[T]) softDelete(ctx context.Context, uuid string) error {
	opCtx, cancel := r.s.opCtx(ctx)
	defer cancel()

	var entity T
	res := r.s.db.WithContext(opCtx).Where("uuid = ?", uuid).Delete(&entity)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
