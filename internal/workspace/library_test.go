package workspace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cuongbtq/estimate-viewer/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "cost", "b-report.md"), "# B")
	writeFile(t, filepath.Join(root, "cost", "nested", "a.MD"), "# A")
	writeFile(t, filepath.Join(root, "cost", "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "estimates", "acme", "aws.md"), "## Cost\n")
	writeFile(t, filepath.Join(root, "private", "secret.md"), "hidden")

	lib, err := NewLibrary(root, []Source{
		{Label: "skills", Dir: ".claude/skills"},
		{Label: "cost", Dir: "cost"},
		{Label: "estimates", Dir: "estimates"},
	})
	require.NoError(t, err)
	return lib, root
}

func TestLibrary_List(t *testing.T) {
	lib, _ := newTestLibrary(t)

	files, err := lib.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "cost/b-report.md", files[0].Path)
	assert.Equal(t, "b-report", files[0].Name)
	assert.Equal(t, "cost", files[0].Section)
	assert.Equal(t, int64(3), files[0].SizeBytes)
	assert.False(t, files[0].UpdatedAt.IsZero())

	assert.Equal(t, "cost/nested/a.MD", files[1].Path)
	assert.Equal(t, "a", files[1].Name)

	assert.Equal(t, "estimates/acme/aws.md", files[2].Path)
	assert.Equal(t, "estimates", files[2].Section)
}

func TestLibrary_ListCanceled(t *testing.T) {
	lib, _ := newTestLibrary(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lib.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLibrary_Read(t *testing.T) {
	lib, _ := newTestLibrary(t)

	tests := []struct {
		name      string
		requested string
		content   string
		wantErr   error
	}{
		{name: "allowed file", requested: "estimates/acme/aws.md", content: "## Cost\n"},
		{name: "windows separators", requested: `cost\b-report.md`, content: "# B"},
		{name: "outside allowed roots", requested: "private/secret.md", wantErr: sandbox.ErrOutsideRoots},
		{name: "missing root is not allowed", requested: ".claude/skills/x.md", wantErr: sandbox.ErrOutsideRoots},
		{name: "not markdown", requested: "cost/notes.txt", wantErr: sandbox.ErrNotMarkdown},
		{name: "absolute", requested: "/cost/b-report.md", wantErr: sandbox.ErrNotMarkdown},
		{name: "missing file", requested: "cost/missing.md", wantErr: ErrDocumentNotFound},
		{name: "traversal", requested: "cost/../private/secret.md", wantErr: sandbox.ErrOutsideRoots},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := lib.Read(tt.requested)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.content, doc.Content)
			assert.Equal(t, int64(len(tt.content)), doc.SizeBytes)
		})
	}
}
