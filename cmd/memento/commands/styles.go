package commands

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-isatty"
)

// styles renders CLI output. Without color every style is a no-op.
type styles struct {
	color bool

	header lipgloss.Style
	key    lipgloss.Style
	muted  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

// newStyles enables color when the configuration asks for it and out is a
// terminal.
func newStyles(out io.Writer, colorOutput bool) styles {
	return styles{
		color:  colorOutput && isTerminal(out),
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		key:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		bad:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

func (s styles) Header(text string) string { return s.render(s.header, text) }
func (s styles) Key(text string) string    { return s.render(s.key, text) }
func (s styles) Muted(text string) string  { return s.render(s.muted, text) }
func (s styles) OK(text string) string     { return s.render(s.ok, text) }
func (s styles) Warn(text string) string   { return s.render(s.warn, text) }
func (s styles) Bad(text string) string    { return s.render(s.bad, text) }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
