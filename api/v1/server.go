package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServerInterface lists the handlers of the v1 API.
type ServerInterface interface {
	// (GET /status)
	GetStatus(c *gin.Context)
	// (GET /runs)
	ListRuns(c *gin.Context)
	// (GET /runs/{id})
	GetRun(c *gin.Context, id string)
	// (GET /runs/{id}/results)
	GetRunResults(c *gin.Context, id string, params GetRunResultsParams)
}

type wrapper struct {
	handler ServerInterface
}

func (w *wrapper) GetStatus(c *gin.Context) {
	w.handler.GetStatus(c)
}

func (w *wrapper) ListRuns(c *gin.Context) {
	w.handler.ListRuns(c)
}

func (w *wrapper) GetRun(c *gin.Context) {
	w.handler.GetRun(c, c.Param("id"))
}

func (w *wrapper) GetRunResults(c *gin.Context) {
	var params GetRunResultsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, Error{Error: "invalid query parameters: " + err.Error()})
		return
	}
	w.handler.GetRunResults(c, c.Param("id"), params)
}

// RegisterHandlers mounts the API routes on router.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	w := &wrapper{handler: si}

	router.GET("/status", w.GetStatus)
	router.GET("/runs", w.ListRuns)
	router.GET("/runs/:id", w.GetRun)
	router.GET("/runs/:id/results", w.GetRunResults)
}
