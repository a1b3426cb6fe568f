package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/sandbox"
)

// ErrDocumentNotFound is returned when an allowed markdown path has no file
var ErrDocumentNotFound = errors.New("markdown file not found")

// Source is one browsable markdown root
type Source struct {
	Label string
	Dir   string
}

// FileInfo describes a markdown file without its content
type FileInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Section   string    `json:"section"`
	UpdatedAt time.Time `json:"updatedAt"`
	SizeBytes int64     `json:"sizeBytes"`
}

// Document is a markdown file with its content
type Document struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updatedAt"`
	SizeBytes int64     `json:"sizeBytes"`
	Content   string    `json:"content"`
}

// Library lists and reads markdown files under a fixed set of roots
type Library struct {
	root    string
	sources []Source
}

// NewLibrary creates a Library; source directories are relative to root
func NewLibrary(root string, sources []Source) (*Library, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root: %w", err)
	}

	resolved := make([]Source, 0, len(sources))
	for _, s := range sources {
		dir := s.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(absRoot, filepath.FromSlash(dir))
		}
		resolved = append(resolved, Source{Label: s.Label, Dir: filepath.Clean(dir)})
	}

	return &Library{root: absRoot, sources: resolved}, nil
}

// List walks every existing source and returns its .md files sorted by path
func (l *Library) List(ctx context.Context) ([]FileInfo, error) {
	files := []FileInfo{}

	for _, source := range l.sources {
		if !DirectoryExists(source.Dir) {
			continue
		}

		err := filepath.WalkDir(source.Dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			files = append(files, FileInfo{
				Path:      l.relPath(path),
				Name:      strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
				Section:   source.Label,
				UpdatedAt: info.ModTime().UTC(),
				SizeBytes: info.Size(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", source.Label, err)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Read returns one markdown document; requested is relative to the library root
func (l *Library) Read(requested string) (*Document, error) {
	path, err := sandbox.ResolveMarkdownPath(l.root, requested, l.existingDirs())
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, ErrDocumentNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrDocumentNotFound
	}

	return &Document{
		Path:      l.relPath(path),
		UpdatedAt: info.ModTime().UTC(),
		SizeBytes: info.Size(),
		Content:   string(data),
	}, nil
}

func (l *Library) existingDirs() []string {
	dirs := make([]string, 0, len(l.sources))
	for _, s := range l.sources {
		if DirectoryExists(s.Dir) {
			dirs = append(dirs, s.Dir)
		}
	}
	return dirs
}

func (l *Library) relPath(abs string) string {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
