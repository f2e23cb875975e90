package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/metrics"
	"github.com/kizomanizo/fanya-backend/internal/pkg/notify"
	"github.com/kizomanizo/fanya-backend/internal/pkg/queue"
)

// TodoSource 提供提醒扫描需要的待办查询。
type TodoSource interface {
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Todo, error)
}

// OnceGuard 保证同一个提醒只发一次。
type OnceGuard interface {
	Once(ctx context.Context, key string) (bool, error)
}

// Scheduler 周期性扫描即将到期的待办并投递提醒邮件。
//
// 扫描循环只负责找出候选并入队，真正的发信在 worker 池里执行，
// 单封邮件的慢 IO 不会拖慢下一轮扫描。
type Scheduler struct {
	todos    TodoSource
	guard    OnceGuard
	notifier notify.Notifier
	logger   *slog.Logger
	q        *queue.Queue

	interval time.Duration
	window   time.Duration
}

// NewScheduler 创建提醒调度器。
//
// 参数:
//
//	todos: 待办查询源
//	guard: 提醒去重闸门
//	notifier: 邮件通知器
//	logger: 日志记录器
//	interval: 扫描间隔
//	window: 提前提醒窗口（截止时间落在 now 到 now+window 之间的待办会被提醒）
//	workers: 发信 worker 数量
//	capacity: 发信队列容量
func NewScheduler(todos TodoSource, guard OnceGuard, notifier notify.Notifier, logger *slog.Logger,
	interval, window time.Duration, workers, capacity int) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Scheduler{
		todos:    todos,
		guard:    guard,
		notifier: notifier,
		logger:   logger,
		q:        queue.NewQueue(logger, workers, capacity),
		interval: interval,
		window:   window,
	}
}

// Run 启动扫描循环，直到 ctx 被取消。
func (s *Scheduler) Run(ctx context.Context) {
	s.q.Start(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			if err := s.q.ShutdownWithTimeout(10 * time.Second); err != nil {
				s.logger.Warn("reminder queue shutdown", slog.String("error", err.Error()))
			}
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep 执行一轮扫描，把窗口内到期的待办包成发信任务入队。
func (s *Scheduler) Sweep(ctx context.Context) {
	now := time.Now()
	todos, err := s.todos.ListDueBetween(ctx, now, now.Add(s.window))
	if err != nil {
		s.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
		return
	}

	for _, todo := range todos {
		todo := todo
		if todo.DueDate == nil || todo.User.Email == "" {
			continue
		}
		if !s.q.Enqueue(func(jobCtx context.Context) error {
			return s.remind(jobCtx, &todo)
		}) {
			s.logger.Warn("reminder queue full, todo skipped this round",
				slog.String("todo", todo.UUID))
		}
	}
}

// remind 发送单条提醒。同一个待办同一个截止时间只发一封。
func (s *Scheduler) remind(ctx context.Context, todo *model.Todo) error {
	key := reminderKey(todo)
	first, err := s.guard.Once(ctx, key)
	if err != nil {
		metrics.ReminderFailedTotal.Inc()
		return fmt.Errorf("reminder guard: %w", err)
	}
	if !first {
		metrics.ReminderSkippedTotal.Inc()
		return nil
	}

	if err := s.notifier.SendDueReminder(ctx, todo.User.Email, todo.User.FirstName, todo.Title, *todo.DueDate); err != nil {
		metrics.ReminderFailedTotal.Inc()
		return fmt.Errorf("reminder send: %w", err)
	}
	metrics.ReminderSentTotal.Inc()
	s.logger.Info("reminder sent",
		slog.String("todo", todo.UUID),
		slog.String("to", todo.User.Email))
	return nil
}

// reminderKey 提醒去重键。截止时间变化后会生成新键，改期的待办会再次提醒。
func reminderKey(todo *model.Todo) string {
	return todo.UUID + "|" + todo.DueDate.UTC().Format(time.RFC3339)
}
