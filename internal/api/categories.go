package api

import (
	"net/http"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"github.com/gin-gonic/gin"
)

type categoryResponse struct {
	UUID        string    `json:"uuid"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func toCategoryResponse(cat *model.Category) categoryResponse {
	return categoryResponse{
		UUID:        cat.UUID,
		Name:        cat.Name,
		Description: cat.Description,
		CreatedAt:   cat.CreatedAt,
		UpdatedAt:   cat.UpdatedAt,
	}
}

// handleCreateCategory 创建分类（仅管理员）。同名活跃分类返回 409。
//
// POST /api/v1/categories
func (s *Server) handleCreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	category, err := s.categories.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		s.respondStoreError(c, err, "create category failed")
		return
	}
	respond(c, http.StatusCreated, "category created", toCategoryResponse(category))
}

// handleListCategories 返回一页分类。
//
// GET /api/v1/categories?page=1&limit=10
func (s *Server) handleListCategories(c *gin.Context) {
	page := s.pageFromQuery(c)
	categories, meta, err := s.categories.List(c.Request.Context(), page)
	if err != nil {
		s.respondStoreError(c, err, "list categories failed")
		return
	}

	items := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, toCategoryResponse(&categories[i]))
	}
	respond(c, http.StatusOK, "categories listed", gin.H{
		"items": items,
		"meta":  meta,
	})
}

// handleGetCategory 按 UUID 返回分类。
func (s *Server) handleGetCategory(c *gin.Context) {
	category, err := s.categories.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		s.respondStoreError(c, err, "get category failed")
		return
	}
	respond(c, http.StatusOK, "category found", toCategoryResponse(category))
}

// handleUpdateCategory 部分更新分类（仅管理员）。
//
// PATCH /api/v1/categories/:uuid
func (s *Server) handleUpdateCategory(c *gin.Context) {
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	category, err := s.categories.Update(c.Request.Context(), c.Param("uuid"), store.UpdateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.respondStoreError(c, err, "update category failed")
		return
	}
	respond(c, http.StatusOK, "category updated", toCategoryResponse(category))
}

// handleDeleteCategory 软删除分类（仅管理员）。重复删除返回 404。
//
// DELETE /api/v1/categories/:uuid
func (s *Server) handleDeleteCategory(c *gin.Context) {
	if err := s.categories.SoftDelete(c.Request.Context(), c.Param("uuid")); err != nil {
		s.respondStoreError(c, err, "delete category failed")
		return
	}
	respond(c, http.StatusOK, "category deleted", nil)
}
