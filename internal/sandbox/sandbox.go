// Package sandbox keeps user-supplied names and paths inside designated root directories.
package sandbox

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrNotMarkdown is returned for absolute or non-.md paths
	ErrNotMarkdown = errors.New("only relative .md files are supported")

	// ErrOutsideRoots is returned when a path resolves outside every allowed root
	ErrOutsideRoots = errors.New("requested file is outside allowed markdown folders")
)

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidProjectName reports whether name is a syntactically safe project identifier
func ValidProjectName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return projectNamePattern.MatchString(name)
}

// IsInside reports whether child resolves strictly inside parent.
// A shared string prefix is not enough: /data/app-old is not inside /data/app.
func IsInside(parent, child string) bool {
	absParent, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	absChild, err := filepath.Abs(child)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator)) &&
		!filepath.IsAbs(rel)
}

// ResolveProjectDir maps a project name to its directory under root.
// The second return value is false when the name is invalid or escapes root.
func ResolveProjectDir(root, name string) (string, bool) {
	if !ValidProjectName(name) {
		return "", false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}

	candidate := filepath.Join(absRoot, name)
	if !IsInside(absRoot, candidate) {
		return "", false
	}
	return candidate, true
}

// ResolveMarkdownPath resolves a slash-separated relative .md path under root and
// requires it to land inside at least one of the allowed directories.
func ResolveMarkdownPath(root, requested string, allowed []string) (string, error) {
	normalized := strings.ReplaceAll(requested, `\`, "/")
	if strings.HasPrefix(normalized, "/") || filepath.IsAbs(normalized) ||
		!strings.HasSuffix(strings.ToLower(normalized), ".md") {
		return "", ErrNotMarkdown
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	candidate := filepath.Join(absRoot, filepath.FromSlash(normalized))
	for _, dir := range allowed {
		if IsInside(dir, candidate) {
			return candidate, nil
		}
	}
	return "", ErrOutsideRoots
}

// StaticPath maps a URL path to a file under webRoot; "/" serves index.html
func StaticPath(webRoot, urlPath string) (string, bool) {
	if urlPath == "" || urlPath == "/" {
		urlPath = "/index.html"
	}

	absRoot, err := filepath.Abs(webRoot)
	if err != nil {
		return "", false
	}

	resolved := filepath.Join(absRoot, filepath.FromSlash(filepath.Clean("/"+urlPath)))
	if !IsInside(absRoot, resolved) {
		return "", false
	}
	return resolved, true
}
