package api

import (
	"net/http"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/pkg/metrics"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"github.com/gin-gonic/gin"
)

type todoResponse struct {
	UUID        string       `json:"uuid"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Completed   bool         `json:"completed"`
	Category    todoCategory `json:"category"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// todoCategory 是待办里内嵌的分类摘要。
type todoCategory struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type createTodoRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	CategoryUUID string     `json:"category_uuid"`
	Tags         []string   `json:"tags"`
}

type updateTodoRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	Completed    *bool      `json:"completed"`
	CategoryUUID *string    `json:"category_uuid"`
	Tags         *[]string  `json:"tags"`
}

func toTodoResponse(t *model.Todo) todoResponse {
	tags := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, tag.Name)
	}
	return todoResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		Category: todoCategory{
			UUID: t.Category.UUID,
			Name: t.Category.Name,
		},
		Tags:      tags,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// handleCreateTodo 创建待办并挂接标签。
//
// POST /api/v1/todos
func (s *Server) handleCreateTodo(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	todo, err := s.todos.Create(c.Request.Context(), user.ID, store.CreateTodoInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		CategoryUUID: req.CategoryUUID,
		Tags:         req.Tags,
	})
	if err != nil {
		s.respondStoreError(c, err, "create todo failed")
		return
	}

	metrics.TodoCreatedTotal.Inc()
	respond(c, http.StatusCreated, "todo created", toTodoResponse(todo))
}

// handleListTodos 返回调用者自己的一页待办。
//
// GET /api/v1/todos?page=1&limit=10
func (s *Server) handleListTodos(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	page := s.pageFromQuery(c)
	todos, meta, err := s.todos.ListByOwner(c.Request.Context(), user.ID, page)
	if err != nil {
		s.respondStoreError(c, err, "list todos failed")
		return
	}

	respond(c, http.StatusOK, "todos listed", gin.H{
		"items": toTodoResponses(todos),
		"meta":  meta,
	})
}

// handleListTodosByTag 返回调用者名下挂有指定标签的待办。
// 标签不存在时返回空页而不是 404。
//
// GET /api/v1/todos/tag/:name?page=1&limit=10
func (s *Server) handleListTodosByTag(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	page := s.pageFromQuery(c)
	todos, meta, err := s.todos.ListByTag(c.Request.Context(), user.ID, c.Param("name"), page)
	if err != nil {
		s.respondStoreError(c, err, "list todos by tag failed")
		return
	}

	respond(c, http.StatusOK, "todos listed", gin.H{
		"items": toTodoResponses(todos),
		"meta":  meta,
	})
}

// handleGetTodo 按 UUID 返回待办。别人的待办返回 403 而不是 404。
func (s *Server) handleGetTodo(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	todo, err := s.todos.Get(c.Request.Context(), user.ID, c.Param("uuid"))
	if err != nil {
		s.respondStoreError(c, err, "get todo failed")
		return
	}
	respond(c, http.StatusOK, "todo found", toTodoResponse(todo))
}

// handleUpdateTodo 部分更新待办。tags 非空时整体替换标签集合。
//
// PATCH /api/v1/todos/:uuid
func (s *Server) handleUpdateTodo(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	todo, err := s.todos.Update(c.Request.Context(), user.ID, c.Param("uuid"), store.UpdateTodoInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		Completed:    req.Completed,
		CategoryUUID: req.CategoryUUID,
		Tags:         req.Tags,
	})
	if err != nil {
		s.respondStoreError(c, err, "update todo failed")
		return
	}
	respond(c, http.StatusOK, "todo updated", toTodoResponse(todo))
}

// handleDeleteTodo 软删除待办。重复删除返回 404。
//
// DELETE /api/v1/todos/:uuid
func (s *Server) handleDeleteTodo(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	if err := s.todos.SoftDelete(c.Request.Context(), user.ID, c.Param("uuid")); err != nil {
		s.respondStoreError(c, err, "delete todo failed")
		return
	}

	metrics.TodoDeletedTotal.Inc()
	respond(c, http.StatusOK, "todo deleted", nil)
}

func toTodoResponses(todos []model.Todo) []todoResponse {
	items := make([]todoResponse, 0, len(todos))
	for i := range todos {
		items = append(items, toTodoResponse(&todos[i]))
	}
	return items
}
