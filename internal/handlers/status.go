package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/tupyy/taskpool/api/v1"
)

// GetStatus returns the live pool counters
// (GET /status)
func (h *Handler) GetStatus(c *gin.Context) {
	var status v1.ExecutorStatus
	status.FromModel(h.executor.Status())
	c.JSON(http.StatusOK, status)
}
