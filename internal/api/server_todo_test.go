package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kizomanizo/fanya-backend/internal/config"
	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/metrics"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"github.com/gin-gonic/gin"
)

type mockUserDirectory struct {
	getFunc    func(ctx context.Context, uuid string) (*model.User, error)
	listFunc   func(ctx context.Context, page store.Page) ([]model.User, store.Meta, error)
	updateFunc func(ctx context.Context, uuid string, in store.UpdateUserInput) (*model.User, error)
	deleteFunc func(ctx context.Context, uuid string) error
}

func (m *mockUserDirectory) Get(ctx context.Context, uuid string) (*model.User, error) {
	return m.getFunc(ctx, uuid)
}

func (m *mockUserDirectory) List(ctx context.Context, page store.Page) ([]model.User, store.Meta, error) {
	return m.listFunc(ctx, page)
}

func (m *mockUserDirectory) Update(ctx context.Context, uuid string, in store.UpdateUserInput) (*model.User, error) {
	return m.updateFunc(ctx, uuid, in)
}

func (m *mockUserDirectory) SoftDelete(ctx context.Context, uuid string) error {
	return m.deleteFunc(ctx, uuid)
}

type mockTodoStore struct {
	createFunc    func(ctx context.Context, ownerID uint, in store.CreateTodoInput) (*model.Todo, error)
	getFunc       func(ctx context.Context, ownerID uint, uuid string) (*model.Todo, error)
	listFunc      func(ctx context.Context, ownerID uint, page store.Page) ([]model.Todo, store.Meta, error)
	listByTagFunc func(ctx context.Context, ownerID uint, tag string, page store.Page) ([]model.Todo, store.Meta, error)
	updateFunc    func(ctx context.Context, ownerID uint, uuid string, in store.UpdateTodoInput) (*model.Todo, error)
	deleteFunc    func(ctx context.Context, ownerID uint, uuid string) error
	createCalls   int
}

func (m *mockTodoStore) Create(ctx context.Context, ownerID uint, in store.CreateTodoInput) (*model.Todo, error) {
	m.createCalls++
	return m.createFunc(ctx, ownerID, in)
}

func (m *mockTodoStore) Get(ctx context.Context, ownerID uint, uuid string) (*model.Todo, error) {
	return m.getFunc(ctx, ownerID, uuid)
}

func (m *mockTodoStore) ListByOwner(ctx context.Context, ownerID uint, page store.Page) ([]model.Todo, store.Meta, error) {
	return m.listFunc(ctx, ownerID, page)
}

func (m *mockTodoStore) ListByTag(ctx context.Context, ownerID uint, tag string, page store.Page) ([]model.Todo, store.Meta, error) {
	return m.listByTagFunc(ctx, ownerID, tag, page)
}

func (m *mockTodoStore) Update(ctx context.Context, ownerID uint, uuid string, in store.UpdateTodoInput) (*model.Todo, error) {
	return m.updateFunc(ctx, ownerID, uuid, in)
}

func (m *mockTodoStore) SoftDelete(ctx context.Context, ownerID uint, uuid string) error {
	return m.deleteFunc(ctx, ownerID, uuid)
}

func aliceDirectory() *mockUserDirectory {
	return &mockUserDirectory{
		getFunc: func(ctx context.Context, uuid string) (*model.User, error) {
			return &model.User{ID: 1, UUID: uuid, Email: "alice@example.com", Role: model.RoleUser}, nil
		},
	}
}

func newTestServer(users UserDirectory, todos TodoStore, categories CategoryStore) *Server {
	return &Server{
		cfg: &config.Config{App: config.AppConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		}},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		users:      users,
		todos:      todos,
		categories: categories,
	}
}

func asAlice(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userUUID", "alice-uuid")
		c.Set("role", "USER")
		handler(c)
	}
}

type envelopeBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return body
}

func TestCreateTodo_Normal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	todos := &mockTodoStore{
		createFunc: func(ctx context.Context, ownerID uint, in store.CreateTodoInput) (*model.Todo, error) {
			if ownerID != 1 {
				t.Fatalf("expected owner 1, got %d", ownerID)
			}
			return &model.Todo{UUID: "todo-uuid", Title: in.Title}, nil
		},
	}
	s := newTestServer(aliceDirectory(), todos, nil)

	r := gin.New()
	r.POST("/todos", asAlice(s.handleCreateTodo))

	payload, _ := json.Marshal(createTodoRequest{Title: "buy milk", Tags: []string{"errand"}})
	req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if todos.createCalls != 1 {
		t.Fatal("expected create to be called")
	}
	if body := decodeEnvelope(t, w); !body.Success {
		t.Fatalf("expected success envelope, got %+v", body)
	}
}

func TestCreateTodo_MissingTitle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	todos := &mockTodoStore{
		createFunc: func(ctx context.Context, ownerID uint, in store.CreateTodoInput) (*model.Todo, error) {
			return &model.Todo{}, nil
		},
	}
	s := newTestServer(aliceDirectory(), todos, nil)

	r := gin.New()
	r.POST("/todos", asAlice(s.handleCreateTodo))

	req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewReader([]byte(`{"description":"no title"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if todos.createCalls != 0 {
		t.Fatal("expected create not to be called")
	}
}

func TestGetTodo_ForeignIsForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	todos := &mockTodoStore{
		getFunc: func(ctx context.Context, ownerID uint, uuid string) (*model.Todo, error) {
			return nil, store.ErrForbidden
		},
	}
	s := newTestServer(aliceDirectory(), todos, nil)

	r := gin.New()
	r.GET("/todos/:uuid", asAlice(s.handleGetTodo))

	req := httptest.NewRequest(http.MethodGet, "/todos/someone-elses", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if body := decodeEnvelope(t, w); body.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestGetTodo_MissingIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	todos := &mockTodoStore{
		getFunc: func(ctx context.Context, ownerID uint, uuid string) (*model.Todo, error) {
			return nil, store.ErrNotFound
		},
	}
	s := newTestServer(aliceDirectory(), todos, nil)

	r := gin.New()
	r.GET("/todos/:uuid", asAlice(s.handleGetTodo))

	req := httptest.NewRequest(http.MethodGet, "/todos/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteTodo_SecondDeleteNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	deleted := false
	todos := &mockTodoStore{
		deleteFunc: func(ctx context.Context, ownerID uint, uuid string) error {
			if deleted {
				return store.ErrNotFound
			}
			deleted = true
			return nil
		},
	}
	s := newTestServer(aliceDirectory(), todos, nil)

	r := gin.New()
	r.DELETE("/todos/:uuid", asAlice(s.handleDeleteTodo))

	req := httptest.NewRequest(http.MethodDelete, "/todos/t1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first delete: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/todos/t1", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestListTodos_EnvelopeCarriesMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	todos := &mockTodoStore{
		listFunc: func(ctx context.Context, ownerID uint, page store.Page) ([]model.Todo, store.Meta, error) {
			if page.Number != 2 || page.Size != 5 {
				t.Fatalf("unexpected page %+v", page)
			}
			return []model.Todo{{UUID: "t1", Title: "only one"}}, store.NewMeta(6, page), nil
		},
	}
	s := newTestServer(aliceDirectory(), todos, nil)

	r := gin.New()
	r.GET("/todos", asAlice(s.handleListTodos))

	req := httptest.NewRequest(http.MethodGet, "/todos?page=2&limit=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload struct {
		Items []todoResponse `json:"items"`
		Meta  store.Meta     `json:"meta"`
	}
	body := decodeEnvelope(t, w)
	if err := json.Unmarshal(body.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Meta.TotalItems != 6 || payload.Meta.TotalPages != 2 || payload.Meta.CurrentPage != 2 {
		t.Fatalf("unexpected meta %+v", payload.Meta)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(payload.Items))
	}
}

func TestCurrentUser_DeletedAccountUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics(1)

	users := &mockUserDirectory{
		getFunc: func(ctx context.Context, uuid string) (*model.User, error) {
			return nil, store.ErrNotFound
		},
	}
	s := newTestServer(users, &mockTodoStore{}, nil)

	r := gin.New()
	r.GET("/users/me", asAlice(s.handleCurrentUser))

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted account, got %d", w.Code)
	}
}
