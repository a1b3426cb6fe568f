package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := New(t.TempDir(), "", "")
	require.NoError(t, err)
	return ws
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_Defaults(t *testing.T) {
	ws := newTestWorkspace(t)

	assert.True(t, filepath.IsAbs(ws.Root))
	assert.Equal(t, DefaultProjectsDir, ws.ProjectsDir)
	assert.Equal(t, DefaultInputFile, ws.InputFile)
	assert.Equal(t, filepath.Join(ws.Root, "estimates"), ws.ProjectsRoot())
}

func TestWorkspace_ProjectDir(t *testing.T) {
	ws := newTestWorkspace(t)

	dir, ok := ws.ProjectDir("acme")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(ws.Root, "estimates", "acme"), dir)

	_, ok = ws.ProjectDir("../secret")
	assert.False(t, ok)
}

func TestWorkspace_ReadProjectInput(t *testing.T) {
	ws := newTestWorkspace(t)
	writeFile(t, filepath.Join(ws.ProjectsRoot(), "acme", "infra.md"), "2 web servers, 1 database")
	require.NoError(t, os.MkdirAll(filepath.Join(ws.ProjectsRoot(), "empty"), 0o755))

	tests := []struct {
		name      string
		project   string
		want      string
		wantErr   error
		errString string
	}{
		{name: "existing input", project: "acme", want: "2 web servers, 1 database"},
		{name: "missing input", project: "empty", wantErr: ErrInputNotFound, errString: "estimates/empty/infra.md"},
		{name: "missing project", project: "ghost", wantErr: ErrProjectNotFound, errString: "estimates/ghost"},
		{name: "invalid project", project: "../x", wantErr: ErrInvalidProject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ws.ReadProjectInput(tt.project)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorkspace_WriteProjectResult(t *testing.T) {
	ws := newTestWorkspace(t)
	projectDir := filepath.Join(ws.ProjectsRoot(), "acme")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))

	t.Run("writes trimmed content with one newline", func(t *testing.T) {
		rel, err := ws.WriteProjectResult("acme", "aws", "\n## Cost\n$120/mo\n\n\n")
		require.NoError(t, err)
		assert.Equal(t, "estimates/acme/aws.md", rel)

		data, err := os.ReadFile(filepath.Join(projectDir, "aws.md"))
		require.NoError(t, err)
		assert.Equal(t, "## Cost\n$120/mo\n", string(data))
	})

	t.Run("overwrites previous result", func(t *testing.T) {
		_, err := ws.WriteProjectResult("acme", "aws", "second")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(projectDir, "aws.md"))
		require.NoError(t, err)
		assert.Equal(t, "second\n", string(data))
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		entries, err := os.ReadDir(projectDir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".tmp")
		}
	})

	t.Run("missing project directory", func(t *testing.T) {
		_, err := ws.WriteProjectResult("ghost", "aws", "x")
		require.Error(t, err)
	})

	t.Run("invalid project", func(t *testing.T) {
		_, err := ws.WriteProjectResult("..", "aws", "x")
		require.ErrorIs(t, err, ErrInvalidProject)
	})
}

func TestWorkspace_RelPaths(t *testing.T) {
	ws := newTestWorkspace(t)

	assert.Equal(t, "estimates/acme/infra.md", ws.InputRelPath("acme"))
	assert.Equal(t, "estimates/acme/gcp.md", ws.ResultRelPath("acme", "gcp"))
	assert.Equal(t, "estimates/acme", ws.RelPath(filepath.Join(ws.Root, "estimates", "acme")))
}

func TestDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.md")
	writeFile(t, file, "x")

	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
	assert.False(t, DirectoryExists(filepath.Join(dir, "missing")))
}
