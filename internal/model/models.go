package model

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// Category 表示待办事项的分类。
//
// 分类由管理员维护，多个 Todo 共享同一个分类（1:N，不归属任何用户）。
// 名称唯一性与软删除标记组成复合键，只约束活跃分类。
type Category struct {
	ID        uint                  `gorm:"primaryKey"`
	UUID      string                `gorm:"type:varchar(36);uniqueIndex;not null"` // 对外唯一标识
	CreatedAt time.Time             // 创建时间
	UpdatedAt time.Time             // 更新时间
	DeletedAt soft_delete.DeletedAt `gorm:"uniqueIndex:uniq_categories_name"` // 软删除时间戳（0 = 活跃）

	Name        string `gorm:"type:varchar(64);uniqueIndex:uniq_categories_name;not null"` // 名称（活跃分类间唯一）
	Description string `gorm:"type:varchar(255)"`                                          // 描述

	Todos []Todo `gorm:"foreignKey:CategoryID"`
}

// DefaultCategoryName 是新建 Todo 未指定分类时使用的默认分类。
const DefaultCategoryName = "General"

// Tag 表示用户给 Todo 打的标签。
//
// 标签在首次挂到 Todo 上时按名称懒创建（原子 upsert），不参与软删除。
type Tag struct {
	ID        uint      `gorm:"primaryKey"`
	UUID      string    `gorm:"type:varchar(36);uniqueIndex;not null"` // 对外唯一标识
	CreatedAt time.Time // 创建时间
	UpdatedAt time.Time // 更新时间

	Name string `gorm:"type:varchar(64);uniqueIndex;not null"` // 名称（全局唯一）

	Todos []Todo `gorm:"many2many:todo_tags"` // 关联的 Todo 列表
}

// Todo 表示一条待办事项。
//
// 每条 Todo 恰好属于一个用户（创建后不可转移），至多属于一个分类，
// 与 Tag 是多对多关系（通过 todo_tags 表关联）。
// 软删除 Todo 时关联行保留，但所有读路径都经由 Todo 本身的
// deleted_at 过滤，因此标签关联随之隐藏。
type Todo struct {
	ID        uint                  `gorm:"primaryKey"`
	UUID      string                `gorm:"type:varchar(36);uniqueIndex;not null"` // 对外唯一标识
	CreatedAt time.Time             // 创建时间
	UpdatedAt time.Time             // 更新时间
	DeletedAt soft_delete.DeletedAt // 软删除时间戳（0 = 活跃）

	Title       string     `gorm:"type:varchar(255);not null"` // 标题
	Description string     `gorm:"type:varchar(1000)"`         // 描述
	DueDate     *time.Time // 截止时间（可空）
	Completed   bool       `gorm:"default:false"` // 是否完成

	UserID     uint     `gorm:"not null;index"`        // 所属用户 ID（创建后不变）
	User       User     `gorm:"foreignKey:UserID"`     // 所属用户
	CategoryID uint     `gorm:"not null;index"`        // 分类 ID
	Category   Category `gorm:"foreignKey:CategoryID"` // 所属分类

	Tags []Tag `gorm:"many2many:todo_tags"` // 关联的标签列表
}

// TodoTag 是 Todo 与 Tag 的关联表（多对多中间表）。
type TodoTag struct {
	TodoID uint `gorm:"primaryKey"` // Todo ID
	TagID  uint `gorm:"primaryKey"` // Tag ID

	CreatedAt time.Time // 关联创建时间
}
