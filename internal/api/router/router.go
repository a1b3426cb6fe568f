package router

import (
	"net/http"

	"github.com/cuongbtq/estimate-viewer/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": deps.ServiceName,
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	fileHandler := handler.NewFileHandler(deps)
	staticHandler := handler.NewStaticHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Start or reuse an estimate job
			jobs.POST("", jobHandler.SubmitJob)

			// GET /api/v1/jobs - List retained jobs
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job status
			jobs.GET("/:job_id", jobHandler.GetJob)
		}

		v1.GET("/providers", jobHandler.ListProviders)
	}

	// Markdown library
	api := r.Group("/api")
	{
		api.GET("/files", fileHandler.ListFiles)
		api.GET("/file", fileHandler.GetFile)
	}

	// Web UI
	r.NoRoute(staticHandler.Serve)

	return r
}
