package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color definitions using AdaptiveColor for automatic light/dark mode switching
var (
	NameColor = lipgloss.AdaptiveColor{
		Light: "#007ACC", // Blue
		Dark:  "#3D9EFF",
	}

	SuccessColor = lipgloss.AdaptiveColor{
		Light: "#28A745", // Green
		Dark:  "#4CDD76",
	}

	ErrorColor = lipgloss.AdaptiveColor{
		Light: "#DC3545", // Red
		Dark:  "#FF6B7D",
	}

	WarningColor = lipgloss.AdaptiveColor{
		Light: "#B8860B", // Amber
		Dark:  "#FFD54F",
	}

	CountColor = lipgloss.AdaptiveColor{
		Light: "#17A2B8", // Cyan
		Dark:  "#4DD0E1",
	}

	MutedColor = lipgloss.AdaptiveColor{
		Light: "#6C757D", // Medium gray
		Dark:  "#ADB5BD",
	}
)

// Styles holds the lipgloss styles bound to one writer.
type Styles struct {
	Header  lipgloss.Style
	Name    lipgloss.Style
	Path    lipgloss.Style
	Label   lipgloss.Style
	Tree    lipgloss.Style
	Count   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
}

// NewStyles binds the palette to w. Without color every style renders its
// input unchanged.
func NewStyles(w io.Writer, color bool) *Styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Styles{
		Header:  r.NewStyle().Bold(true),
		Name:    r.NewStyle().Foreground(NameColor),
		Path:    r.NewStyle().Foreground(MutedColor),
		Label:   r.NewStyle().Foreground(MutedColor),
		Tree:    r.NewStyle().Foreground(MutedColor),
		Count:   r.NewStyle().Foreground(CountColor),
		Success: r.NewStyle().Foreground(SuccessColor),
		Error:   r.NewStyle().Foreground(ErrorColor).Bold(true),
		Hint:    r.NewStyle().Foreground(WarningColor),
	}
}
