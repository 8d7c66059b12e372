package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet-maintenance-backend/internal/model"
)

// runResponse is one run report with the failure list unpacked from its
// stored JSON column.
type runResponse struct {
	model.PipelineRun
	Failures []model.UnitFailure `json:"failures"`
}

func newRunResponse(run model.PipelineRun) runResponse {
	failures := run.FailureList()
	if failures == nil {
		failures = []model.UnitFailure{}
	}
	return runResponse{PipelineRun: run, Failures: failures}
}

// GetRuns handles GET /api/runs: the most recent run reports, newest first.
func GetRuns(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var runs []model.PipelineRun
		if err := db.Order("started_at DESC").Limit(20).Find(&runs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve runs"})
			return
		}

		responses := make([]runResponse, 0, len(runs))
		for _, run := range runs {
			responses = append(responses, newRunResponse(run))
		}
		c.JSON(http.StatusOK, responses)
	}
}

// GetRun handles GET /api/runs/:run_id.
func GetRun(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var run model.PipelineRun
		if err := db.First(&run, "id = ?", c.Param("run_id")).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve run"})
			}
			return
		}

		c.JSON(http.StatusOK, newRunResponse(run))
	}
}

// TriggerRun handles POST /api/runs/trigger: starts a run immediately and
// returns its report once finished.
func (h *Handler) TriggerRun(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline is not running"})
		return
	}

	res, err := h.trigger.Trigger(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if res == nil || res.Run == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run produced no report"})
		return
	}

	resp := newRunResponse(*res.Run)
	if res.Run.Status == model.RunFailed {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
