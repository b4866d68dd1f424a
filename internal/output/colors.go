package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for report elements.
type ColorScheme struct {
	Title       *color.Color
	Label       *color.Color
	Value       *color.Color
	StatusOK    *color.Color
	StatusWarn  *color.Color
	StatusError *color.Color
	Success     *color.Color
	Error       *color.Color
}

func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:       color.New(color.FgMagenta, color.Bold),
		Label:       color.New(color.FgCyan),
		Value:       color.New(color.Bold),
		StatusOK:    color.New(color.FgGreen, color.Bold),
		StatusWarn:  color.New(color.FgYellow, color.Bold),
		StatusError: color.New(color.FgRed, color.Bold),
		Success:     color.New(color.FgGreen),
		Error:       color.New(color.FgRed),
	}
}

// NoColorScheme returns a scheme with every color disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{
		scheme.Title, scheme.Label, scheme.Value,
		scheme.StatusOK, scheme.StatusWarn, scheme.StatusError,
		scheme.Success, scheme.Error,
	} {
		c.DisableColor()
	}
	return scheme
}

// SchemeFor picks colors only when w is a terminal and color was not
// disabled by the user or the NO_COLOR convention.
func SchemeFor(w io.Writer, noColor bool) *ColorScheme {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return NoColorScheme()
	}
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return NoColorScheme()
	}
	scheme := DefaultColorScheme()
	for _, c := range []*color.Color{
		scheme.Title, scheme.Label, scheme.Value,
		scheme.StatusOK, scheme.StatusWarn, scheme.StatusError,
		scheme.Success, scheme.Error,
	} {
		c.EnableColor()
	}
	return scheme
}

// statusColor picks a color by status class.
func (s *ColorScheme) statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return s.StatusOK
	case code >= 300 && code < 400:
		return s.StatusWarn
	default:
		return s.StatusError
	}
}
