package notify

import (
	"context"
	"time"
)

// Notifier 定义提醒通知接口。
type Notifier interface {
	// SendDueReminder 给用户发送待办到期提醒。
	//
	// 参数:
	//   ctx: 上下文
	//   toEmail: 接收邮箱
	//   name: 收件人称呼
	//   title: 待办标题
	//   due: 截止时间
	SendDueReminder(ctx context.Context, toEmail string, name string, title string, due time.Time) error
}
