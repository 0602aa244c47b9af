package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/skillpack/pkg/commands"
	"github.com/arthur-debert/skillpack/pkg/errors"
	"github.com/arthur-debert/skillpack/pkg/logging"
	"github.com/arthur-debert/skillpack/pkg/paths"
)

const (
	branch     = "├─"
	lastBranch = "└─"
	arrow      = "→"
	check      = "✓"

	// markdownWidth is the wrap width for rendered SKILL.md bodies.
	markdownWidth = 80
)

// Printer writes command results in one format.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	format Format
	color  bool
	styles *Styles
}

// NewPrinter creates a Printer. FormatAuto is resolved against out when it
// is a terminal file and falls back to plain output otherwise.
func NewPrinter(out, errOut io.Writer, format Format, noColor bool) *Printer {
	file, _ := out.(*os.File)
	if format == FormatAuto {
		format = DetectFormat(file)
	}
	color := format == FormatPretty && ColorEnabled(file, noColor)
	if color {
		pterm.EnableStyling()
	} else {
		pterm.DisableStyling()
	}

	logger := logging.GetLogger("output")
	logger.Debug().
		Str("format", format.String()).
		Bool("color", color).
		Msg("Creating printer")

	return &Printer{out: out, errOut: errOut, format: format, color: color, styles: NewStyles(out, color)}
}

// Format returns the resolved output format.
func (p *Printer) Format() Format { return p.format }

// Skills prints the local skill list.
func (p *Printer) Skills(r *commands.ListSkillsResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		for _, s := range r.Skills {
			b.WriteString(s.ID)
			if s.Description != "" {
				b.WriteString("\t" + s.Description)
			}
			b.WriteString("\n")
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render("Skills") + " " + s.Count.Render(countLabel(r.Count)) + "\n\n")
	if len(r.Skills) == 0 {
		b.WriteString("  " + s.Path.Render("No skills found") + "\n")
		b.WriteString("  " + s.Path.Render("Create skills/<id>/SKILL.md files to get started") + "\n")
	}
	width := 0
	for _, skill := range r.Skills {
		if len(skill.ID) > width {
			width = len(skill.ID)
		}
	}
	for _, skill := range r.Skills {
		line := "  " + s.Name.Render(skill.ID)
		if skill.Description != "" {
			line += strings.Repeat(" ", width-len(skill.ID)+2) + s.Path.Render(skill.Description)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	return p.write(b.String())
}

// Skill prints one skill with its SKILL.md body.
func (p *Printer) Skill(r *commands.ShowSkillResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		b.WriteString("id " + r.ID + "\n")
		if r.Name != "" {
			b.WriteString("name " + r.Name + "\n")
		}
		if r.Description != "" {
			b.WriteString("description " + r.Description + "\n")
		}
		b.WriteString("path " + r.Path + "\n\n")
		b.WriteString(r.Body)
		if !strings.HasSuffix(r.Body, "\n") {
			b.WriteString("\n")
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render(r.ID) + "\n\n")
	if r.Name != "" {
		b.WriteString("  " + s.Label.Render("name") + " " + s.Name.Render(r.Name) + "\n")
	}
	if r.Description != "" {
		b.WriteString("  " + s.Label.Render("description") + " " + r.Description + "\n")
	}
	b.WriteString("  " + s.Label.Render("path") + " " + s.Path.Render(abbreviatePath(r.Path)) + "\n")
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  " + s.Label.Render(k) + " " + fmt.Sprint(r.Extra[k]) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(p.markdown(r.Body))
	return p.write(b.String())
}

// markdown renders a SKILL.md body with glamour, returning it untouched
// when rendering fails.
func (p *Printer) markdown(body string) string {
	style := glamour.WithStandardStyle("notty")
	if p.color {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(markdownWidth))
	if err != nil {
		return body
	}
	rendered, err := renderer.Render(body)
	if err != nil {
		return body
	}
	return rendered
}

// Packs prints the pack list.
func (p *Printer) Packs(r *commands.ListPacksResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		for _, pack := range r.Packs {
			b.WriteString(pack.Name + "\n")
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render("Packs") + " " + s.Count.Render(countLabel(r.Count)) + "\n\n")
	if len(r.Packs) == 0 {
		b.WriteString("  " + s.Path.Render("No packs found") + "\n")
		b.WriteString("  " + s.Path.Render("Create packs/*.yaml files to define skill collections") + "\n")
	}
	for _, pack := range r.Packs {
		b.WriteString("  " + s.Name.Render(pack.Name) + "  " + s.Path.Render(abbreviatePath(pack.Path)) + "\n")
	}
	b.WriteString("\n")
	return p.write(b.String())
}

// Pack prints a resolved pack and its install names.
func (p *Printer) Pack(r *commands.ShowPackResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		b.WriteString("local\n")
		for _, id := range r.Local {
			b.WriteString(id + "\n")
		}
		for _, imp := range r.Imports {
			b.WriteString("import " + imp.Repo + "\n")
			for _, id := range imp.Skills {
				b.WriteString(id + "\n")
			}
		}
		b.WriteString("final\n")
		for _, name := range r.Names {
			b.WriteString(name + "\n")
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render(r.Pack.Name) + "\n\n")
	b.WriteString("  " + s.Label.Render("source") + " " + s.Path.Render(abbreviatePath(r.Pack.File)) + "\n")
	install := fmt.Sprintf("prefix=%s sep=%s", s.Name.Render(r.Pack.Prefix), s.Name.Render(r.Pack.Sep))
	if r.Pack.Flatten {
		install += " flatten"
	}
	b.WriteString("  " + s.Label.Render("install") + " " + install + "\n\n")

	if len(r.Local) > 0 {
		b.WriteString("  " + s.Header.Render("Local") + " " + s.Count.Render(countLabel(len(r.Local))) + "\n")
		for i, id := range r.Local {
			b.WriteString("  " + s.Tree.Render(treeGlyph(i, len(r.Local))) + " " + s.Name.Render(id) + "\n")
		}
		b.WriteString("\n")
	}

	if len(r.Imports) > 0 {
		b.WriteString("  " + s.Header.Render("Imports") + " " + s.Count.Render(countLabel(len(r.Imports))) + "\n")
		for i, imp := range r.Imports {
			last := i == len(r.Imports)-1
			ref := imp.Ref
			if ref == "" {
				ref = "default"
			}
			b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
				s.Tree.Render(treeGlyph(i, len(r.Imports))),
				s.Name.Render(imp.Repo),
				s.Path.Render("@"+ref),
				s.Path.Render("("+shortHash(imp.Commit)+")")))
			indent := "│  "
			if last {
				indent = "   "
			}
			for j, id := range imp.Skills {
				b.WriteString("  " + s.Tree.Render(indent+treeGlyph(j, len(imp.Skills))) + " " + s.Path.Render(id) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if len(r.Names) > 0 {
		b.WriteString("  " + s.Header.Render("Installs as") + " " + s.Count.Render(countLabel(len(r.Names))) + "\n")
		for _, name := range r.Names {
			b.WriteString("  " + s.Tree.Render(arrow) + " " + s.Success.Render(name) + "\n")
		}
		b.WriteString("\n")
	}
	return p.write(b.String())
}

// Install prints the outcome of an install, one block per sink.
func (p *Printer) Install(r *commands.InstallResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		for _, sink := range r.Sinks {
			b.WriteString(fmt.Sprintf("installed %d skills to %s\n", len(sink.InstalledPaths), sink.SinkPath))
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	for _, sink := range r.Sinks {
		b.WriteString(fmt.Sprintf("%s Installed %s to %s\n\n",
			s.Success.Render(check), s.Name.Render(r.Pack.Name), s.Name.Render(sink.Sink)))
		b.WriteString("  " + s.Label.Render("path") + " " + s.Path.Render(abbreviatePath(sink.SinkPath)) + "\n")
		b.WriteString("  " + s.Label.Render("skills") + " " + s.Count.Render(strconv.Itoa(len(sink.InstalledPaths))) + "\n")

		var changes []string
		if sink.Added > 0 {
			changes = append(changes, s.Success.Render(strconv.Itoa(sink.Added))+" added")
		}
		if sink.Updated > 0 {
			changes = append(changes, s.Count.Render(strconv.Itoa(sink.Updated))+" updated")
		}
		if sink.Removed > 0 {
			changes = append(changes, s.Path.Render(strconv.Itoa(sink.Removed))+" removed")
		}
		if len(changes) > 0 {
			b.WriteString("  " + s.Label.Render("changes") + " " + strings.Join(changes, ", ") + "\n")
		}
		b.WriteString("\n")
	}
	return p.write(b.String())
}

// Uninstall prints the outcome of an uninstall, one block per sink.
func (p *Printer) Uninstall(r *commands.UninstallResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		for _, sink := range r.Sinks {
			b.WriteString("uninstalled " + r.Pack + " from " + sink.SinkPath + "\n")
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	for _, sink := range r.Sinks {
		b.WriteString(fmt.Sprintf("%s Uninstalled %s from %s\n\n",
			s.Success.Render(check), s.Name.Render(r.Pack), s.Name.Render(sink.Sink)))
		b.WriteString("  " + s.Label.Render("path") + " " + s.Path.Render(abbreviatePath(sink.SinkPath)) + "\n")
		b.WriteString("  " + s.Label.Render("removed") + " " + s.Count.Render(strconv.Itoa(len(sink.Removed))) + " skills\n\n")
	}
	return p.write(b.String())
}

// Installed prints the install records as a table.
func (p *Printer) Installed(r *commands.InstalledResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		for _, item := range r.Installs {
			b.WriteString(fmt.Sprintf("%s %s %d %s %s\n",
				item.Sink, item.Pack, item.SkillCount, item.InstalledAt.UTC().Format(time.RFC3339), item.SinkPath))
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render("Installed") + "\n\n")
	if len(r.Installs) == 0 {
		b.WriteString("  " + s.Path.Render("No packs installed") + "\n")
		b.WriteString("  " + s.Path.Render("Run: sp install <pack> --sink <name>") + "\n\n")
		return p.write(b.String())
	}

	data := pterm.TableData{{"PACK", "SINK", "SKILLS", "INSTALLED", "PATH"}}
	for _, item := range r.Installs {
		data = append(data, []string{
			item.Pack,
			item.Sink,
			strconv.Itoa(item.SkillCount),
			humanize.Time(item.InstalledAt),
			abbreviatePath(item.SinkPath),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to render table")
	}
	b.WriteString(indent(table) + "\n\n")
	return p.write(b.String())
}

// Config prints the sink configuration.
func (p *Printer) Config(r *commands.ConfigResult) error {
	switch p.format {
	case FormatJSON:
		return p.json(r)
	case FormatPlain:
		var b strings.Builder
		for _, sink := range r.Effective {
			b.WriteString(sink.Name + " " + sink.Path + "\n")
		}
		return p.write(b.String())
	}

	s := p.styles
	var b strings.Builder
	b.WriteString(s.Header.Render("Config") + "\n\n")
	b.WriteString("  " + s.Label.Render("home") + " " + s.Path.Render(abbreviatePath(r.Home)) + "\n")
	if len(r.Loaded) == 0 {
		b.WriteString("  " + s.Label.Render("file") + " " + s.Path.Render("none, using defaults") + "\n\n")
	}
	for _, f := range r.Loaded {
		b.WriteString("  " + s.Label.Render("file") + " " + s.Path.Render(abbreviatePath(f)) + "\n")
	}
	if len(r.Loaded) > 0 {
		b.WriteString("\n")
	}

	overridden := map[string]bool{}
	for _, o := range r.Overrides {
		overridden[o.Name] = true
	}
	b.WriteString("  " + s.Header.Render("Sinks") + " " + s.Count.Render(countLabel(len(r.Effective))) + "\n")
	data := pterm.TableData{{"NAME", "PATH", "SOURCE"}}
	for _, sink := range r.Effective {
		source := "default"
		if overridden[sink.Name] {
			source = "override"
		}
		data = append(data, []string{sink.Name, abbreviatePath(sink.Path), source})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to render table")
	}
	b.WriteString(indent(table) + "\n\n")
	return p.write(b.String())
}

// Version prints the build information.
func (p *Printer) Version(version, commit, date string) error {
	if p.format == FormatJSON {
		return p.json(map[string]string{"version": version, "commit": commit, "date": date})
	}
	line := "sp " + version
	if commit != "" {
		line += " (" + shortHash(commit) + ")"
	}
	if date != "" && p.format == FormatPretty {
		line += " built " + date
	}
	return p.write(line + "\n")
}

// Error prints err and its hint to the error writer. JSON output gets a
// JSON object on the error writer instead.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	msg := errors.Message(err)
	hint := errors.HintOf(err)

	if p.format == FormatJSON {
		payload := map[string]string{
			"error": msg,
			"code":  string(errors.GetErrorCode(err)),
			"kind":  string(errors.KindOf(err)),
		}
		if hint != "" {
			payload["hint"] = hint
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		_, _ = fmt.Fprintln(p.errOut, string(data))
		return
	}

	s := p.styles
	_, _ = fmt.Fprintln(p.errOut, s.Error.Render("Error:")+" "+msg)
	if hint != "" {
		_, _ = fmt.Fprintln(p.errOut, s.Hint.Render("hint:")+" "+hint)
	}
}

func (p *Printer) json(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode JSON output")
	}
	return p.write(string(data) + "\n")
}

func (p *Printer) write(s string) error {
	_, err := io.WriteString(p.out, s)
	return err
}

func countLabel(n int) string {
	return "(" + strconv.Itoa(n) + ")"
}

func treeGlyph(i, n int) string {
	if i == n-1 {
		return lastBranch
	}
	return branch
}

func indent(block string) string {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// abbreviatePath replaces the home directory prefix with ~.
func abbreviatePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if paths.IsWithin(home, path) {
		rel, err := filepath.Rel(home, path)
		if err == nil {
			return "~" + string(filepath.Separator) + rel
		}
	}
	return path
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
