package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/skillpack/pkg/commands"
	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/packs"
)

func newTestPrinter(format Format) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewPrinter(&out, &errOut, format, true), &out, &errOut
}

func showResult() *commands.ShowPackResult {
	return &commands.ShowPackResult{
		Pack:  commands.PackInfo{Name: "team", File: "/repo/packs/team.yaml", Prefix: "team", Sep: "__"},
		Local: []string{"general/a", "general/b"},
		Imports: []commands.ImportView{
			{Repo: "github.com/acme/skills", Ref: "v1", Commit: "0123456789abcdef", Skills: []string{"tools/lint"}},
		},
		Names: []string{"team__general__a", "team__general__b", "team__tools__lint"},
	}
}

func TestFormatParsing(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatPretty},
		{"pretty", FormatPretty},
		{"PLAIN", FormatPlain},
		{"json", FormatJSON},
		{"auto", FormatAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestAutoFormatOnBufferIsPlain(t *testing.T) {
	p, _, _ := newTestPrinter(FormatAuto)
	assert.Equal(t, FormatPlain, p.Format())
	assert.Equal(t, FormatPlain, DetectFormat(nil))
	assert.False(t, ColorEnabled(nil, false))
}

func TestSkillsPlainAndPretty(t *testing.T) {
	result := &commands.ListSkillsResult{Count: 2, Skills: []commands.SkillInfo{
		{ID: "coding/x"},
		{ID: "general/a", Description: "First skill"},
	}}

	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Skills(result))
	assert.Equal(t, "coding/x\ngeneral/a\tFirst skill\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Skills(result))
	assert.Contains(t, out.String(), "Skills (2)")
	assert.Contains(t, out.String(), "  general/a  First skill\n")
	assert.NotContains(t, out.String(), "\x1b[")

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Skills(&commands.ListSkillsResult{}))
	assert.Contains(t, out.String(), "No skills found")
}

func TestSkillJSON(t *testing.T) {
	p, out, _ := newTestPrinter(FormatJSON)
	require.NoError(t, p.Skills(&commands.ListSkillsResult{Count: 1, Skills: []commands.SkillInfo{{ID: "a"}}}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, float64(1), decoded["count"])
}

func TestSkillDetail(t *testing.T) {
	result := &commands.ShowSkillResult{
		SkillInfo: commands.SkillInfo{ID: "general/a", Name: "Alpha", Path: "/repo/skills/general/a"},
		Extra:     map[string]interface{}{"license": "MIT"},
		Body:      "# Alpha\n\nDo the thing.\n",
	}

	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Skill(result))
	assert.Equal(t, "id general/a\nname Alpha\npath /repo/skills/general/a\n\n# Alpha\n\nDo the thing.\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Skill(result))
	assert.Contains(t, out.String(), "general/a\n")
	assert.Contains(t, out.String(), "license MIT")
	assert.Contains(t, out.String(), "Do the thing.")
}

func TestPacks(t *testing.T) {
	result := &commands.ListPacksResult{Count: 1, Packs: []packs.Summary{{Name: "general", Path: filepath.Join("packs", "general.yaml")}}}

	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Packs(result))
	assert.Equal(t, "general\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Packs(result))
	assert.Contains(t, out.String(), "  general  "+filepath.Join("packs", "general.yaml"))
}

func TestPackPlain(t *testing.T) {
	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Pack(showResult()))
	assert.Equal(t, "local\ngeneral/a\ngeneral/b\nimport github.com/acme/skills\ntools/lint\nfinal\n"+
		"team__general__a\nteam__general__b\nteam__tools__lint\n", out.String())
}

func TestPackPretty(t *testing.T) {
	p, out, _ := newTestPrinter(FormatPretty)
	require.NoError(t, p.Pack(showResult()))
	text := out.String()

	assert.Contains(t, text, "prefix=team sep=__")
	assert.Contains(t, text, "Local (2)")
	assert.Contains(t, text, "├─ general/a\n")
	assert.Contains(t, text, "└─ general/b\n")
	assert.Contains(t, text, "└─ github.com/acme/skills @v1 (01234567)")
	assert.Contains(t, text, "   └─ tools/lint\n")
	assert.Contains(t, text, "→ team__tools__lint\n")
}

func TestPackJSONUsesFinalInstallNames(t *testing.T) {
	p, out, _ := newTestPrinter(FormatJSON)
	require.NoError(t, p.Pack(showResult()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Len(t, decoded["final_install_names"], 3)
}

func TestInstallAndUninstall(t *testing.T) {
	install := &commands.InstallResult{
		Pack: commands.PackInfo{Name: "general"},
		Sinks: []commands.SinkInstall{{
			Sink: "claude", SinkPath: "/sinks/claude", Added: 1, Updated: 1,
			InstalledPaths: []string{"/sinks/claude/a", "/sinks/claude/b"},
		}},
	}

	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Install(install))
	assert.Equal(t, "installed 2 skills to /sinks/claude\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Install(install))
	assert.Contains(t, out.String(), "✓ Installed general to claude")
	assert.Contains(t, out.String(), "changes 1 added, 1 updated\n")

	uninstall := &commands.UninstallResult{Pack: "general", Sinks: []commands.SinkUninstall{
		{Sink: "claude", SinkPath: "/sinks/claude", Removed: []string{"/sinks/claude/a"}},
	}}
	p, out, _ = newTestPrinter(FormatPlain)
	require.NoError(t, p.Uninstall(uninstall))
	assert.Equal(t, "uninstalled general from /sinks/claude\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Uninstall(uninstall))
	assert.Contains(t, out.String(), "✓ Uninstalled general from claude")
	assert.Contains(t, out.String(), "removed 1 skills")
}

func TestInstalled(t *testing.T) {
	at := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)
	result := &commands.InstalledResult{Installs: []commands.InstalledItem{
		{Sink: "claude", Pack: "general", SkillCount: 2, InstalledAt: at, SinkPath: "/sinks/claude"},
	}}

	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Installed(result))
	assert.Equal(t, "claude general 2 2026-01-15T09:30:00Z /sinks/claude\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Installed(result))
	assert.Contains(t, out.String(), "PACK")
	assert.Contains(t, out.String(), "general")
	assert.Contains(t, out.String(), "/sinks/claude")

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Installed(&commands.InstalledResult{}))
	assert.Contains(t, out.String(), "No packs installed")
}

func TestConfig(t *testing.T) {
	result := &commands.ConfigResult{
		Home:      "/cfg",
		Defaults:  []commands.SinkTarget{{Name: "claude", Path: "/d/claude"}},
		Overrides: []commands.SinkTarget{{Name: "team", Path: "/o/team"}},
		Effective: []commands.SinkTarget{{Name: "claude", Path: "/d/claude"}, {Name: "team", Path: "/o/team"}},
	}

	p, out, _ := newTestPrinter(FormatPlain)
	require.NoError(t, p.Config(result))
	assert.Equal(t, "claude /d/claude\nteam /o/team\n", out.String())

	p, out, _ = newTestPrinter(FormatPretty)
	require.NoError(t, p.Config(result))
	assert.Contains(t, out.String(), "Sinks (2)")
	assert.Contains(t, out.String(), "override")
	assert.Contains(t, out.String(), "none, using defaults")
}

func TestErrorWithHint(t *testing.T) {
	err := errors.New(errors.ErrNotInstalled, "pack general is not installed").
		WithHint("Run sp installed to list installed packs")

	p, _, errOut := newTestPrinter(FormatPretty)
	p.Error(err)
	assert.Equal(t, "Error: pack general is not installed\nhint: Run sp installed to list installed packs\n", errOut.String())

	p, _, errOut = newTestPrinter(FormatJSON)
	p.Error(err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &decoded))
	assert.Equal(t, "NOT_INSTALLED", decoded["code"])
	assert.Equal(t, "io", decoded["kind"])
}

func TestAbbreviatePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, "~", abbreviatePath(home))
	assert.Equal(t, "~"+string(os.PathSeparator)+"child", abbreviatePath(filepath.Join(home, "child")))
	assert.Equal(t, home+"x", abbreviatePath(home+"x"))
	assert.Equal(t, "01234567", shortHash("0123456789"))
}
