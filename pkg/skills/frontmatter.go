package skills

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/types"
)

// Document is a parsed SKILL.md.
type Document struct {
	Meta types.SkillMeta
	// Extra holds frontmatter keys other than name and description.
	Extra map[string]interface{}
	// Body is the markdown without the frontmatter block.
	Body string
}

// ReadDocument loads and parses the SKILL.md of skill. Missing frontmatter
// is not an error.
func ReadDocument(fsys types.FS, skill types.Skill) (*Document, error) {
	path := filepath.Join(skill.SourcePath, types.SkillMarker)
	content, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path).WithDetail("path", path)
	}
	doc, err := ParseDocument(content)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSkillLayout, "failed to parse %s", path).WithDetail("path", path)
	}
	return doc, nil
}

// ParseDocument splits SKILL.md content into frontmatter and body.
func ParseDocument(content []byte) (*Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	data, err := meta.TryGet(pctx)
	if err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	doc := &Document{Extra: map[string]interface{}{}, Body: stripFrontmatter(string(content))}
	for key, value := range data {
		switch key {
		case "name":
			doc.Meta.Name = fmt.Sprint(value)
		case "description":
			doc.Meta.Description = strings.TrimSpace(fmt.Sprint(value))
		default:
			doc.Extra[key] = value
		}
	}
	return doc, nil
}

// stripFrontmatter removes a leading "---" delimited block.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}
