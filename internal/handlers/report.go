package handlers

import (
	"net/http"
	"strconv"

	"tokenup/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ReportHandler struct {
	reporter *services.Reporter
	log      zerolog.Logger
}

func NewReportHandler(reporter *services.Reporter, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{reporter: reporter, log: log}
}

// Leaderboard handles GET /api/leaderboard?limit=
func (h *ReportHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	users, err := h.reporter.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *ReportHandler) Analytics(c *gin.Context) {
	report, err := h.reporter.Analytics(c.Request.Context(), currentUser(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
