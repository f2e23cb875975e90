package api

import (
	"net/http"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/model"
	"github.com/kizomanizo/fanya-backend/internal/store"

	"github.com/gin-gonic/gin"
)

// userResponse 用户的对外表示。口令摘要和盐永远不出存储层。
type userResponse struct {
	UUID      string     `json:"uuid"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	JoinDate  time.Time  `json:"join_date"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		UUID:      u.UUID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		JoinDate:  u.JoinDate,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// handleCurrentUser 返回令牌对应的用户。
//
// GET /api/v1/users/me
func (s *Server) handleCurrentUser(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "current user", toUserResponse(user))
}

// handleListUsers 返回一页用户（仅管理员）。
//
// GET /api/v1/users?page=1&limit=10
func (s *Server) handleListUsers(c *gin.Context) {
	page := s.pageFromQuery(c)
	users, meta, err := s.users.List(c.Request.Context(), page)
	if err != nil {
		s.respondStoreError(c, err, "list users failed")
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	respond(c, http.StatusOK, "users listed", gin.H{
		"items": items,
		"meta":  meta,
	})
}

// handleGetUser 按 UUID 返回用户（仅管理员）。
func (s *Server) handleGetUser(c *gin.Context) {
	user, err := s.users.Get(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		s.respondStoreError(c, err, "get user failed")
		return
	}
	respond(c, http.StatusOK, "user found", toUserResponse(user))
}

// handleUpdateUser 部分更新用户（仅管理员）。
//
// PATCH /api/v1/users/:uuid
func (s *Server) handleUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, err := s.users.Update(c.Request.Context(), c.Param("uuid"), store.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		s.respondStoreError(c, err, "update user failed")
		return
	}
	respond(c, http.StatusOK, "user updated", toUserResponse(user))
}

// handleDeleteUser 软删除用户（仅管理员）。重复删除返回 404。
//
// DELETE /api/v1/users/:uuid
func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.users.SoftDelete(c.Request.Context(), c.Param("uuid")); err != nil {
		s.respondStoreError(c, err, "delete user failed")
		return
	}
	respond(c, http.StatusOK, "user deleted", nil)
}
