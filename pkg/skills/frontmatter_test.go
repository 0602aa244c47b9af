package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/skillpack/pkg/filesystem"
	"github.com/arthur-debert/skillpack/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentWithFrontmatter(t *testing.T) {
	content := "---\nname: git-commit\ndescription: Write good commit messages\nversion: 2\n---\n# Commit\n\nBody text.\n"

	doc, err := ParseDocument([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "git-commit", doc.Meta.Name)
	assert.Equal(t, "Write good commit messages", doc.Meta.Description)
	assert.Equal(t, 2, doc.Extra["version"])
	assert.Equal(t, "# Commit\n\nBody text.\n", doc.Body)
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	doc, err := ParseDocument([]byte("# Plain\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Meta.Name)
	assert.Empty(t, doc.Meta.Description)
	assert.Equal(t, "# Plain\n", doc.Body)
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, types.SkillMarker),
		[]byte("---\ndescription: hello\n---\nhi\n"), 0644))

	doc, err := ReadDocument(filesystem.NewOS(), types.Skill{ID: "x", SourcePath: dir})
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Meta.Description)

	_, err = ReadDocument(filesystem.NewOS(), types.Skill{ID: "y", SourcePath: filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
