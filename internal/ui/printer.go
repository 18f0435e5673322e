// Package ui renders user facing messages and reads interactive input.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Printer writes leveled messages in the ">>> LEVEL:" layout. It carries its
// own theme so callers never touch global colour state.
type Printer struct {
	out   io.Writer
	theme Theme
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithTheme overrides the theme.
func WithTheme(theme Theme) PrinterOption {
	return func(p *Printer) {
		p.theme = theme
	}
}

// WithColor forces colour on or off.
func WithColor(enabled bool) PrinterOption {
	return func(p *Printer) {
		if enabled {
			p.theme = DefaultTheme()
		} else {
			p.theme = PlainTheme()
		}
	}
}

// NewPrinter builds a Printer on out. Colour is enabled only when out is a
// terminal and NO_COLOR is unset.
func NewPrinter(out io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{out: out, theme: PlainTheme()}
	if ColorEnabled(out) {
		p.theme = DefaultTheme()
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ColorEnabled reports whether styled output should be written to w.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Level selects the style of a message.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Styled renders text with the style of level.
func (p *Printer) Styled(level Level, text string) string {
	return p.style(level).Render(text)
}

func (p *Printer) style(level Level) lipgloss.Style {
	switch level {
	case LevelWarn:
		return p.theme.Warn
	case LevelError:
		return p.theme.Error
	default:
		return p.theme.Info
	}
}

// Out returns the underlying writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Info prints an informational message.
func (p *Printer) Info(format string, args ...any) {
	p.leveled(LevelInfo, format, args...)
}

// Warn prints a warning.
func (p *Printer) Warn(format string, args ...any) {
	p.leveled(LevelWarn, format, args...)
}

// Error prints an error message.
func (p *Printer) Error(format string, args ...any) {
	p.leveled(LevelError, format, args...)
}

// Raw prints a formatted line without prefix or styling.
func (p *Printer) Raw(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Line prints an empty line.
func (p *Printer) Line() {
	fmt.Fprintln(p.out)
}

// Help renders text in the help style.
func (p *Printer) Help(text string) string {
	return p.theme.Help.Render(text)
}

// Input renders a prompt label.
func (p *Printer) Input(text string) string {
	return p.theme.Input.Render(text)
}

func (p *Printer) leveled(level Level, format string, args ...any) {
	prefix := p.Styled(level, ">>> "+strings.ToUpper(string(level))+":")
	msg := fmt.Sprintf(format, args...)
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\n", "\n\t")
	fmt.Fprintf(p.out, "%s\n\t%s\n", prefix, msg)
}
