package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cuongbtq/estimate-viewer/internal/generator"
	"github.com/cuongbtq/estimate-viewer/internal/sandbox"
	"github.com/cuongbtq/estimate-viewer/internal/worker"
	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
	"github.com/cuongbtq/estimate-viewer/internal/workspace"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// JobService is the job API the handlers depend on
type JobService interface {
	Submit(ctx context.Context, project, provider string) (*worker.SubmitResult, error)
	Get(id string) (*domain.Job, error)
	List() []*domain.Job
	Providers() []string
}

// DocumentLibrary lists and reads browsable markdown files
type DocumentLibrary interface {
	List(ctx context.Context) ([]workspace.FileInfo, error)
	Read(requested string) (*workspace.Document, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	ServiceName string
	Jobs        JobService
	Library     DocumentLibrary
	WebRoot     string
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	jobs   JobService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
	}
}

// FileHandler serves the markdown library
type FileHandler struct {
	logger  *slog.Logger
	library DocumentLibrary
}

// NewFileHandler creates a new FileHandler instance
func NewFileHandler(deps *Dependencies) *FileHandler {
	return &FileHandler{
		logger:  deps.Logger,
		library: deps.Library,
	}
}

// HTTPStatus maps a domain error to its response status
func HTTPStatus(err error) int {
	var (
		invalid  *domain.InvalidRequestError
		notFound *domain.NotFoundError
		procErr  *generator.ProcessError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &invalid), errors.Is(err, sandbox.ErrNotMarkdown):
		return http.StatusBadRequest
	case errors.Is(err, sandbox.ErrOutsideRoots):
		return http.StatusForbidden
	case errors.As(err, &notFound),
		errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, workspace.ErrDocumentNotFound),
		errors.Is(err, workspace.ErrProjectNotFound),
		errors.Is(err, workspace.ErrInputNotFound):
		return http.StatusNotFound
	case errors.As(err, &procErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON sends a JSON body that clients must not cache
func writeJSON(c *gin.Context, status int, body any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, body)
}

// writeError sends {"error": ...}; server faults are logged and hidden from the client
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := HTTPStatus(err)
	message := err.Error()

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		message = "internal server error"
	}

	writeJSON(c, status, gin.H{
		"error": message,
	})
}

// bindingMessage turns request binding errors into "<field> is required" style messages
func bindingMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		field := strings.ToLower(ve.Field())
		if ve.Tag() == "required" {
			return fmt.Sprintf("%s is required", field)
		}
		return fmt.Sprintf("%s is invalid", field)
	}
	return "invalid request body"
}
