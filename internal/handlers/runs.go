package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/tupyy/taskpool/api/v1"
	"github.com/tupyy/taskpool/internal/store"
	srvErrors "github.com/tupyy/taskpool/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxRuns         = 50
)

// ListRuns returns the most recent runs
// (GET /runs)
func (h *Handler) ListRuns(c *gin.Context) {
	if !h.hasStore(c) {
		return
	}

	runs, err := h.store.Runs().List(c.Request.Context(), maxRuns)
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to list runs"})
		return
	}

	apiRuns := make([]v1.Run, 0, len(runs))
	for _, r := range runs {
		apiRuns = append(apiRuns, v1.NewRunFromModel(r))
	}
	c.JSON(http.StatusOK, apiRuns)
}

// GetRun returns one run
// (GET /runs/{id})
func (h *Handler) GetRun(c *gin.Context, id string) {
	if !h.hasStore(c) {
		return
	}

	run, err := h.store.Runs().Get(c.Request.Context(), id)
	if err != nil {
		if srvErrors.IsResourceNotFoundError(err) {
			c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
			return
		}
		zap.S().Named("run_handler").Errorw("failed to get run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to get run"})
		return
	}

	c.JSON(http.StatusOK, v1.NewRunFromModel(*run))
}

// GetRunResults returns the results of a run with pagination
// (GET /runs/{id}/results)
func (h *Handler) GetRunResults(c *gin.Context, id string, params v1.GetRunResultsParams) {
	if !h.hasStore(c) {
		return
	}
	ctx := c.Request.Context()

	// Parse pagination
	page := 1
	if params.Page != nil && *params.Page > 0 {
		page = *params.Page
	}
	pageSize := defaultPageSize
	if params.PageSize != nil && *params.PageSize > 0 {
		pageSize = *params.PageSize
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
	}

	if _, err := h.store.Runs().Get(ctx, id); err != nil {
		if srvErrors.IsResourceNotFoundError(err) {
			c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
			return
		}
		zap.S().Named("run_handler").Errorw("failed to get run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to get run"})
		return
	}

	filters := []store.ListOption{store.ByRun(id)}
	if params.Failed != nil && *params.Failed {
		filters = append(filters, store.ByFailed())
	}

	total, err := h.store.Results().Count(ctx, filters...)
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to count results", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to list results"})
		return
	}

	opts := append(filters,
		store.WithDefaultSort(),
		store.WithLimit(uint64(pageSize)),
		store.WithOffset(uint64((page-1)*pageSize)),
	)
	records, err := h.store.Results().List(ctx, opts...)
	if err != nil {
		zap.S().Named("run_handler").Errorw("failed to list results", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to list results"})
		return
	}

	// Calculate page count
	pageCount := (total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	results := make([]v1.Result, 0, len(records))
	for _, r := range records {
		results = append(results, v1.NewResultFromModel(r))
	}

	c.JSON(http.StatusOK, v1.ResultListResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     total,
		Results:   results,
	})
}

func (h *Handler) hasStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, v1.Error{Error: "persistence is disabled"})
		return false
	}
	return true
}
