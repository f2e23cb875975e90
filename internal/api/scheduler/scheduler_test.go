package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
)

type fakeTodoSource struct {
	todos []model.Todo
}

func (f *fakeTodoSource) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Todo, error) {
	return f.todos, nil
}

type memGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *memGuard) Once(ctx context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) SendDueReminder(ctx context.Context, toEmail, name, title string, due time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, toEmail+"|"+title)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func dueTodo(uuid, email, title string, due time.Time) model.Todo {
	return model.Todo{
		UUID:    uuid,
		Title:   title,
		DueDate: &due,
		User:    model.User{Email: email, FirstName: "Test"},
	}
}

func TestScheduler_SweepSendsReminder(t *testing.T) {
	due := time.Now().Add(time.Hour)
	src := &fakeTodoSource{todos: []model.Todo{
		dueTodo("t1", "alice@example.com", "pay rent", due),
		dueTodo("t2", "bob@example.com", "call mom", due),
	}}
	notifier := &recordingNotifier{}

	s := NewScheduler(src, &memGuard{}, notifier, testLogger(), time.Minute, time.Hour, 2, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.q.Start(ctx)

	s.Sweep(ctx)
	s.q.Shutdown()

	if got := notifier.count(); got != 2 {
		t.Fatalf("expected 2 reminders, got %d", got)
	}
}

func TestScheduler_SameDueDateRemindedOnce(t *testing.T) {
	due := time.Now().Add(time.Hour)
	src := &fakeTodoSource{todos: []model.Todo{
		dueTodo("t1", "alice@example.com", "pay rent", due),
	}}
	notifier := &recordingNotifier{}

	s := NewScheduler(src, &memGuard{}, notifier, testLogger(), time.Minute, time.Hour, 1, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.q.Start(ctx)

	// 两轮扫描命中同一个待办
	s.Sweep(ctx)
	s.Sweep(ctx)
	s.q.Shutdown()

	if got := notifier.count(); got != 1 {
		t.Fatalf("expected exactly 1 reminder, got %d", got)
	}
}

func TestScheduler_RescheduledTodoRemindedAgain(t *testing.T) {
	due := time.Now().Add(time.Hour)
	todo := dueTodo("t1", "alice@example.com", "pay rent", due)
	src := &fakeTodoSource{todos: []model.Todo{todo}}
	notifier := &recordingNotifier{}

	s := NewScheduler(src, &memGuard{}, notifier, testLogger(), time.Minute, time.Hour, 1, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.q.Start(ctx)

	s.Sweep(ctx)

	// 改期后生成新的去重键，应当再次提醒
	newDue := due.Add(2 * time.Hour)
	src.todos[0].DueDate = &newDue
	s.Sweep(ctx)
	s.q.Shutdown()

	if got := notifier.count(); got != 2 {
		t.Fatalf("expected 2 reminders after reschedule, got %d", got)
	}
}

func TestScheduler_SkipsTodosWithoutRecipient(t *testing.T) {
	due := time.Now().Add(time.Hour)
	src := &fakeTodoSource{todos: []model.Todo{
		dueTodo("t1", "", "orphan todo", due),
	}}
	notifier := &recordingNotifier{}

	s := NewScheduler(src, &memGuard{}, notifier, testLogger(), time.Minute, time.Hour, 1, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.q.Start(ctx)

	s.Sweep(ctx)
	s.q.Shutdown()

	if got := notifier.count(); got != 0 {
		t.Fatalf("expected no reminders, got %d", got)
	}
}
