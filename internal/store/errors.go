package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// 存储层错误分类。Handler 依据这些哨兵错误映射 HTTP 状态码。
var (
	// ErrNotFound 指定键下不存在活跃实体（含已软删除的情况）。
	ErrNotFound = errors.New("record not found")
	// ErrConflict 活跃行之间的唯一约束冲突（邮箱、分类名、标签名）。
	ErrConflict = errors.New("unique constraint violated")
	// ErrForbidden 实体存在但调用者不是所有者。
	ErrForbidden = errors.New("not the owner")
	// ErrUnavailable 存储不可达或调用超时。
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidCredentials 登录失败。不区分“用户不存在”和“密码错误”，
	// 避免给枚举攻击提供信号。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation 输入未通过存储层校验（非法角色值等）。
	ErrValidation = errors.New("validation failed")
)

// translate 将 gorm / context 错误翻译为存储层错误分类。
//
// 唯一约束以数据库索引为准（gorm TranslateError 把驱动错误统一成
// gorm.ErrDuplicatedKey），应用层的预检查只是为了更友好的报错。
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ErrUnavailable
	default:
		return err
	}
}
