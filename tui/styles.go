package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/TFMV/graphsketch/render"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			PaddingLeft(1)

	stateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			PaddingLeft(1)
)

// palette caches one lipgloss style per canvas color
type palette struct {
	background lipgloss.Color
	styles     map[string]lipgloss.Style
}

func newPalette(background string) *palette {
	return &palette{
		background: lipgloss.Color(render.HexColor(background, "#f8f8f8")),
		styles:     make(map[string]lipgloss.Style),
	}
}

func (p *palette) style(color string) lipgloss.Style {
	if s, ok := p.styles[color]; ok {
		return s
	}
	s := lipgloss.NewStyle().Background(p.background)
	if color != "" {
		s = s.Foreground(lipgloss.Color(render.HexColor(color, "#000000")))
	}
	p.styles[color] = s
	return s
}
