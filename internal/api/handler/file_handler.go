package handler

import (
	"net/http"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// ListFiles handles GET /api/files
func (h *FileHandler) ListFiles(c *gin.Context) {
	files, err := h.library.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	writeJSON(c, http.StatusOK, dto.ListFilesResponse{
		GeneratedAt: dto.FormatTime(time.Now()),
		Count:       len(files),
		Files:       dto.NewFileDTOs(files),
	})
}

// GetFile handles GET /api/file?path=
func (h *FileHandler) GetFile(c *gin.Context) {
	requested := c.Query("path")
	if requested == "" {
		writeJSON(c, http.StatusBadRequest, gin.H{
			"error": "missing required query parameter: path",
		})
		return
	}

	doc, err := h.library.Read(requested)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	writeJSON(c, http.StatusOK, dto.NewDocumentDTO(doc))
}
