package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	templateFile = "estimate.json"

	// DefaultMaxReferenceChars caps each reference document
	DefaultMaxReferenceChars = 12000
	// DefaultMaxInputChars caps the project input document
	DefaultMaxInputChars = 40000
	// DefaultTruncationMarker is appended to any capped text
	DefaultTruncationMarker = "\n\n[... truncated ...]"
)

// Config controls which reference files feed a prompt and how much of each is kept
type Config struct {
	Root              string
	SharedReferences  []string
	References        map[string][]string
	MaxReferenceChars int
	MaxInputChars     int
	TruncationMarker  string
}

// Assembler turns a project's input document into a provider-specific prompt
type Assembler struct {
	cfg          Config
	template     string
	noReferences string
}

// NewAssembler creates an Assembler, filling unset limits with defaults
func NewAssembler(cfg Config) (*Assembler, error) {
	tmpl, err := Get(templateFile, "estimate")
	if err != nil {
		return nil, err
	}
	noRefs, err := Get(templateFile, "no_references")
	if err != nil {
		return nil, err
	}

	if cfg.MaxReferenceChars <= 0 {
		cfg.MaxReferenceChars = DefaultMaxReferenceChars
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.TruncationMarker == "" {
		cfg.TruncationMarker = DefaultTruncationMarker
	}

	return &Assembler{
		cfg:          cfg,
		template:     tmpl,
		noReferences: noRefs,
	}, nil
}

// Build produces the generation prompt. Missing reference files are skipped.
func (a *Assembler) Build(provider, project, input string) string {
	return Format(a.template, map[string]string{
		"Provider":   provider,
		"Project":    project,
		"Input":      Truncate(strings.TrimSpace(input), a.cfg.MaxInputChars, a.cfg.TruncationMarker),
		"References": a.references(provider),
	})
}

// ReferencePaths lists the reference files consulted for a provider, shared ones first
func (a *Assembler) ReferencePaths(provider string) []string {
	paths := make([]string, 0, len(a.cfg.SharedReferences)+len(a.cfg.References[provider]))
	paths = append(paths, a.cfg.SharedReferences...)
	paths = append(paths, a.cfg.References[provider]...)
	return paths
}

func (a *Assembler) references(provider string) string {
	var sections []string
	for _, rel := range a.ReferencePaths(provider) {
		content := ReadOptional(filepath.Join(a.cfg.Root, filepath.FromSlash(rel)), a.cfg.MaxReferenceChars, a.cfg.TruncationMarker)
		if strings.TrimSpace(content) == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("### %s\n\n%s", rel, strings.TrimSpace(content)))
	}

	if len(sections) == 0 {
		return a.noReferences
	}
	return strings.Join(sections, "\n\n")
}

// ReadOptional returns the file's text capped at maxChars, or "" when it cannot be read
func ReadOptional(path string, maxChars int, marker string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return Truncate(string(data), maxChars, marker)
}

// Truncate keeps at most maxChars runes of text and appends marker when it cuts.
// A non-positive maxChars disables the cap.
func Truncate(text string, maxChars int, marker string) string {
	if maxChars <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + marker
}
