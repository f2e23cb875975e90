package model

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

// 用户角色。
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User 表示系统用户。
//
// Password 存储 argon2id 摘要，Salt 是用户级随机盐，
// 两者都不会出现在任何 API 响应中。
//
// DeletedAt 为 0 表示未删除；邮箱唯一索引与 DeletedAt 组成复合键，
// 因此唯一性只在活跃用户之间生效，软删除后同一邮箱允许重新注册。
type User struct {
	ID        uint                  `gorm:"primaryKey"`
	UUID      string                `gorm:"type:varchar(36);uniqueIndex;not null"` // 对外唯一标识
	CreatedAt time.Time             // 创建时间
	UpdatedAt time.Time             // 更新时间
	DeletedAt soft_delete.DeletedAt `gorm:"uniqueIndex:uniq_users_email"` // 软删除时间戳（0 = 活跃）

	FirstName string     `gorm:"type:varchar(64)"`
	LastName  string     `gorm:"type:varchar(64)"`
	Email     string     `gorm:"type:varchar(191);uniqueIndex:uniq_users_email;not null"` // 邮箱（活跃用户间唯一）
	Password  string     `gorm:"not null"`                                                // argon2id 摘要
	Salt      string     `gorm:"type:varchar(64);not null"`                               // 用户级随机盐
	Role      string     `gorm:"type:varchar(16);default:USER"`                           // 角色: USER / ADMIN
	IsActive  bool       `gorm:"default:false"`                                           // 账号是否激活
	JoinDate  time.Time  // 注册时间
	LastLogin *time.Time // 最近登录时间

	Todos []Todo `gorm:"foreignKey:UserID"`
}
