// Package workspace is the file system the service reads projects from and writes estimates to.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/estimate-viewer/internal/sandbox"
)

const (
	// DefaultProjectsDir holds one directory per project, relative to the root
	DefaultProjectsDir = "estimates"
	// DefaultInputFile is the project document that describes its infrastructure
	DefaultInputFile = "infra.md"
)

var (
	// ErrInvalidProject is returned when a project name fails the sandbox check
	ErrInvalidProject = errors.New("invalid project name")

	// ErrProjectNotFound is returned when the project directory does not exist
	ErrProjectNotFound = errors.New("project directory not found")

	// ErrInputNotFound is returned when the project has no input document
	ErrInputNotFound = errors.New("project input not found")
)

// Workspace resolves project directories under Root/ProjectsDir
type Workspace struct {
	Root        string
	ProjectsDir string
	InputFile   string
}

// New creates a Workspace rooted at root with an absolute path
func New(root, projectsDir, inputFile string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if projectsDir == "" {
		projectsDir = DefaultProjectsDir
	}
	if inputFile == "" {
		inputFile = DefaultInputFile
	}

	return &Workspace{
		Root:        absRoot,
		ProjectsDir: projectsDir,
		InputFile:   inputFile,
	}, nil
}

// ProjectsRoot is the absolute directory containing all projects
func (w *Workspace) ProjectsRoot() string {
	return filepath.Join(w.Root, filepath.FromSlash(w.ProjectsDir))
}

// ProjectDir resolves a project's directory; false if the name is unsafe
func (w *Workspace) ProjectDir(project string) (string, bool) {
	return sandbox.ResolveProjectDir(w.ProjectsRoot(), project)
}

// DirectoryExists reports whether path is an existing directory
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RelPath converts an absolute path under Root to a slash-separated relative path
func (w *Workspace) RelPath(abs string) string {
	rel, err := filepath.Rel(w.Root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// InputRelPath is the expected location of a project's input document, for messages
func (w *Workspace) InputRelPath(project string) string {
	return filepath.ToSlash(filepath.Join(w.ProjectsDir, project, w.InputFile))
}

// ResultRelPath is where a provider's estimate for project is written
func (w *Workspace) ResultRelPath(project, provider string) string {
	return filepath.ToSlash(filepath.Join(w.ProjectsDir, project, provider+".md"))
}

// ReadProjectInput returns the content of a project's input document
func (w *Workspace) ReadProjectInput(project string) (string, error) {
	dir, ok := w.ProjectDir(project)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidProject, project)
	}
	if !DirectoryExists(dir) {
		return "", fmt.Errorf("%w: %s", ErrProjectNotFound, w.RelPath(dir))
	}

	data, err := os.ReadFile(filepath.Join(dir, w.InputFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrInputNotFound, w.InputRelPath(project))
		}
		return "", fmt.Errorf("failed to read project input %s: %w", w.InputRelPath(project), err)
	}
	return string(data), nil
}

// WriteProjectResult writes text as the provider's result file, replacing any previous one.
// The content is trimmed and terminated with exactly one newline.
func (w *Workspace) WriteProjectResult(project, provider, text string) (string, error) {
	dir, ok := w.ProjectDir(project)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidProject, project)
	}

	target := filepath.Join(dir, provider+".md")
	if !sandbox.IsInside(w.ProjectsRoot(), target) {
		return "", fmt.Errorf("%w: %s", ErrInvalidProject, project)
	}

	content := strings.TrimSpace(text) + "\n"
	if err := writeAtomic(target, []byte(content)); err != nil {
		return "", err
	}
	return w.RelPath(target), nil
}

// writeAtomic writes through a temp file so readers never see a partial result
func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(target), err)
	}
	return nil
}
