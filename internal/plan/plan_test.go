package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestFromDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b_fevrier.pdf"))
	touch(t, filepath.Join(dir, "a_janvier.PDF"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.pdf"), 0o755))

	p, err := Resolve(dir)
	require.NoError(t, err)
	require.Len(t, p.Statements, 2)
	assert.Equal(t, filepath.Join(dir, "a_janvier.PDF"), p.Statements[0].Path)
	assert.Equal(t, filepath.Join(dir, "b_fevrier.pdf"), p.Statements[1].Path)

	_, err = FromDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
output: comptes_2024.xlsx
budget: 300
statements:
  - path: janvier.pdf
    budget: 280
  - path: /archive/fevrier.pdf
    mode: markdown
`), 0o644))

	p, err := Resolve(manifest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "comptes_2024.xlsx"), p.Output)
	require.Len(t, p.Statements, 2)
	assert.Equal(t, filepath.Join(dir, "janvier.pdf"), p.Statements[0].Path)
	assert.Equal(t, "/archive/fevrier.pdf", p.Statements[1].Path)

	assert.Equal(t, 280.0, *p.BudgetOf(p.Statements[0], nil))
	assert.Equal(t, 300.0, *p.BudgetOf(p.Statements[1], nil))
	assert.Equal(t, "text", p.ModeOf(p.Statements[0], "text"))
	assert.Equal(t, "markdown", p.ModeOf(p.Statements[1], "text"))

	def := 10.0
	assert.Equal(t, &def, (&Plan{}).BudgetOf(Statement{}, &def))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "statements: [unclosed"},
		{"no statements", "output: x.xlsx\n"},
		{"missing path", "statements:\n  - mode: text\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	touch(t, filepath.Join(dir, "single.pdf"))
	_, err := Resolve(filepath.Join(dir, "single.pdf"))
	assert.Error(t, err)
}
