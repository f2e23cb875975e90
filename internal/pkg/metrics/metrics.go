package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 全局指标。指标对象在包加载时创建，未注册也可以安全地打点（测试场景）；
// InitMetrics 负责注册到默认 Registry，重复调用安全。
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fanya_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	TodoCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_todo_created_total",
		Help: "Todos created.",
	})
	TodoDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_todo_deleted_total",
		Help: "Todos soft deleted.",
	})
	LoginFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_login_failed_total",
		Help: "Failed login attempts.",
	})
	LoginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_login_success_total",
		Help: "Successful logins.",
	})

	ReminderSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_reminder_sent_total",
		Help: "Due-date reminder emails sent.",
	})
	ReminderFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_reminder_failed_total",
		Help: "Due-date reminder emails failed.",
	})
	ReminderSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_reminder_skipped_total",
		Help: "Reminders skipped because already sent.",
	})

	RateLimitWaitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fanya_ratelimit_wait_seconds",
		Help:    "Time spent waiting for a rate-limit token.",
		Buckets: prometheus.DefBuckets,
	})
	RateLimitTimeoutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fanya_ratelimit_timeout_total",
		Help: "Rate-limit waits aborted by context cancellation.",
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fanya_reminder_queue_depth",
		Help: "Pending jobs in the reminder queue.",
	})
	WorkerPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fanya_reminder_worker_pool_size",
		Help: "Configured reminder worker pool size.",
	})

	registerOnce sync.Once
)

// InitMetrics 将所有指标注册到默认 Registry 并记录 worker 池大小。
func InitMetrics(workerPoolSize int) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			TodoCreatedTotal, TodoDeletedTotal,
			LoginFailedTotal, LoginSuccessTotal,
			ReminderSentTotal, ReminderFailedTotal, ReminderSkippedTotal,
			RateLimitWaitDuration, RateLimitTimeoutTotal,
			QueueDepth, WorkerPoolSize,
		)
	})
	WorkerPoolSize.Set(float64(workerPoolSize))
}
