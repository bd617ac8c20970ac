package handlers

import (
	"net/http"

	"tokenup/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EngagementHandler serves likes and comments on a certificate.
type EngagementHandler struct {
	engagement *services.EngagementService
	log        zerolog.Logger
}

func NewEngagementHandler(engagement *services.EngagementService, log zerolog.Logger) *EngagementHandler {
	return &EngagementHandler{engagement: engagement, log: log}
}

func (h *EngagementHandler) Like(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.engagement.Like(c.Request.Context(), currentUser(c), id); err != nil {
		Fail(c, h.log, err)
		return
	}
	h.summary(c, id)
}

func (h *EngagementHandler) Unlike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.engagement.Unlike(c.Request.Context(), currentUser(c), id); err != nil {
		Fail(c, h.log, err)
		return
	}
	h.summary(c, id)
}

// Likes handles GET /api/certificates/:id/likes.
func (h *EngagementHandler) Likes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.summary(c, id)
}

func (h *EngagementHandler) summary(c *gin.Context, id uint) {
	sum, err := h.engagement.Summary(c.Request.Context(), currentUser(c), id)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *EngagementHandler) Comments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.engagement.Comments(c.Request.Context(), id)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *EngagementHandler) Comment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	comment, err := h.engagement.Comment(c.Request.Context(), currentUser(c), id, req.Content)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
