package handlers

import (
	"net/http"

	"tokenup/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	users *services.UserService
	log   zerolog.Logger
}

func NewUserHandler(users *services.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

// UpdateAvatar handles PUT /api/user/avatar.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := h.users.UpdateAvatar(c.Request.Context(), currentUser(c), req.Avatar)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Tokens lists the caller's award history.
func (h *UserHandler) Tokens(c *gin.Context) {
	history, err := h.users.TokenHistory(c.Request.Context(), currentUser(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// MakeAdmin promotes the caller, when self promotion is enabled.
func (h *UserHandler) MakeAdmin(c *gin.Context) {
	user, err := h.users.PromoteSelf(c.Request.Context(), currentUser(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Promote handles POST /api/users/:id/admin.
func (h *UserHandler) Promote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Promote(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
