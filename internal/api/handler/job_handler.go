package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/estimate-viewer/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// SubmitJob handles POST /api/v1/jobs
// Starts an estimate generation, or returns the job already running for the same pair
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		writeJSON(c, http.StatusBadRequest, gin.H{
			"error": bindingMessage(err),
		})
		return
	}

	result, err := h.jobs.Submit(c.Request.Context(), req.Project, req.Provider)
	if err != nil {
		h.logger.Info("Job submission rejected",
			slog.String("project", req.Project),
			slog.String("provider", req.Provider),
			slog.String("error", err.Error()),
		)
		writeError(c, h.logger, err)
		return
	}

	status := http.StatusAccepted
	if result.Reused {
		status = http.StatusOK
	}

	writeJSON(c, status, dto.SubmitJobResponse{
		Reused: result.Reused,
		Job:    dto.NewJobDTO(result.Job),
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.jobs.Get(jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	writeJSON(c, http.StatusOK, dto.NewJobDTO(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists retained jobs, newest first
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs := h.jobs.List()

	writeJSON(c, http.StatusOK, dto.ListJobsResponse{
		Count: len(jobs),
		Jobs:  dto.NewJobDTOs(jobs),
	})
}

// ListProviders handles GET /api/v1/providers
func (h *JobHandler) ListProviders(c *gin.Context) {
	writeJSON(c, http.StatusOK, dto.ProvidersResponse{
		Providers: h.jobs.Providers(),
	})
}
