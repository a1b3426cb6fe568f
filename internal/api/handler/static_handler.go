package handler

import (
	"net/http"
	"os"
	"strings"

	"github.com/cuongbtq/estimate-viewer/internal/sandbox"
	"github.com/gin-gonic/gin"
)

// StaticHandler serves the web UI from a directory
type StaticHandler struct {
	webRoot string
}

// NewStaticHandler creates a new StaticHandler instance
func NewStaticHandler(deps *Dependencies) *StaticHandler {
	return &StaticHandler{webRoot: deps.WebRoot}
}

// Serve is the fallback for every unmatched route
func (h *StaticHandler) Serve(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		notFound(c)
		return
	}

	target, ok := sandbox.StaticPath(h.webRoot, path)
	if !ok {
		notFound(c)
		return
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		notFound(c)
		return
	}

	c.File(target)
}

func notFound(c *gin.Context) {
	writeJSON(c, http.StatusNotFound, gin.H{
		"error": "not found",
	})
}
