package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrInterrupted is returned when input ends or the context is cancelled while
// waiting for an answer.
var ErrInterrupted = errors.New("prompt interrupted")

// Prompter asks the user for input.
type Prompter interface {
	Prompt(ctx context.Context, label, def string) (string, error)
	Password(ctx context.Context, label string) (string, error)
}

// LinePrompter reads answers line by line from in.
type LinePrompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
	style  func(string) string
}

// NewLinePrompter builds a prompter reading from in and writing labels to out.
// The printer, when set, styles the labels.
func NewLinePrompter(in io.Reader, out io.Writer, printer *Printer) *LinePrompter {
	p := &LinePrompter{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
		style:  func(s string) string { return s },
	}
	if printer != nil {
		p.style = printer.Input
	}
	return p
}

// Prompt shows label and returns the trimmed answer, or def when the answer is
// empty.
func (p *LinePrompter) Prompt(ctx context.Context, label, def string) (string, error) {
	text := label
	if def != "" {
		text = fmt.Sprintf("%s [%s]", label, def)
	}
	fmt.Fprint(p.out, p.style(text)+" ")

	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Password reads a secret. Echo is disabled when input is a terminal.
func (p *LinePrompter) Password(ctx context.Context, label string) (string, error) {
	fmt.Fprint(p.out, p.style(label)+" ")

	file, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		answer, err := p.readLine(ctx)
		return strings.TrimRight(answer, "\r\n"), err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := term.ReadPassword(int(file.Fd()))
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ErrInterrupted
	case res := <-done:
		fmt.Fprintln(p.out)
		if res.err != nil {
			return "", ErrInterrupted
		}
		return string(res.data), nil
	}
}

func (p *LinePrompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		done <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ErrInterrupted
	case res := <-done:
		if res.err != nil {
			// A final line without newline still counts as an answer.
			if errors.Is(res.err, io.EOF) && res.line != "" {
				return strings.TrimRight(res.line, "\r\n"), nil
			}
			fmt.Fprintln(p.out)
			return "", ErrInterrupted
		}
		return strings.TrimRight(res.line, "\r\n"), nil
	}
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
