package dto

import (
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
	"github.com/cuongbtq/estimate-viewer/internal/workspace"
)

// TimeFormat is ISO-8601 in UTC with millisecond precision
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

type SubmitJobRequest struct {
	Project  string `json:"project" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

type SubmitJobResponse struct {
	Reused bool   `json:"reused"`
	Job    JobDTO `json:"job"`
}

type ListJobsResponse struct {
	Count int      `json:"count"`
	Jobs  []JobDTO `json:"jobs"`
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

type ListFilesResponse struct {
	GeneratedAt string    `json:"generatedAt"`
	Count       int       `json:"count"`
	Files       []FileDTO `json:"files"`
}

type FileDTO struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Section   string `json:"section"`
	UpdatedAt string `json:"updatedAt"`
	SizeBytes int64  `json:"sizeBytes"`
}

type DocumentDTO struct {
	Path      string `json:"path"`
	UpdatedAt string `json:"updatedAt"`
	SizeBytes int64  `json:"sizeBytes"`
	Content   string `json:"content"`
}

// JobDTO is the wire form of a job; unset optional fields serialize as null
type JobDTO struct {
	ID          string  `json:"id"`
	Project     string  `json:"project"`
	Provider    string  `json:"provider"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	StartedAt   *string `json:"startedAt"`
	CompletedAt *string `json:"completedAt"`
	OutputPath  *string `json:"outputPath"`
	Error       *string `json:"error"`
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func NewJobDTO(job *domain.Job) JobDTO {
	return JobDTO{
		ID:          job.ID,
		Project:     job.Project,
		Provider:    job.Provider,
		Status:      string(job.Status),
		CreatedAt:   FormatTime(job.CreatedAt),
		StartedAt:   formatOptional(job.StartedAt),
		CompletedAt: formatOptional(job.CompletedAt),
		OutputPath:  copyString(job.OutputPath),
		Error:       copyString(job.Error),
	}
}

func NewJobDTOs(jobs []*domain.Job) []JobDTO {
	out := make([]JobDTO, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, NewJobDTO(job))
	}
	return out
}

func NewFileDTOs(files []workspace.FileInfo) []FileDTO {
	out := make([]FileDTO, 0, len(files))
	for _, f := range files {
		out = append(out, FileDTO{
			Path:      f.Path,
			Name:      f.Name,
			Section:   f.Section,
			UpdatedAt: FormatTime(f.UpdatedAt),
			SizeBytes: f.SizeBytes,
		})
	}
	return out
}

func NewDocumentDTO(doc *workspace.Document) DocumentDTO {
	return DocumentDTO{
		Path:      doc.Path,
		UpdatedAt: FormatTime(doc.UpdatedAt),
		SizeBytes: doc.SizeBytes,
		Content:   doc.Content,
	}
}
