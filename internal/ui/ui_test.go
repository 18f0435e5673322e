package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPrinterLeveledLayout(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.Info("Solution [%s] was chosen.", "main")
	printer.Error("first\nsecond")

	want := ">>> INFO:\n\tSolution [main] was chosen.\n>>> ERROR:\n\tfirst\n\tsecond\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrinterRawAndLine(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, WithColor(false))

	printer.Line()
	printer.Raw("\t[%d] %s", 1, "alpha")

	if buf.String() != "\n\t[1] alpha\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestColorDisabledForBuffers(t *testing.T) {
	if ColorEnabled(&bytes.Buffer{}) {
		t.Fatalf("expected no colour for non-file writers")
	}
}

func TestPromptReturnsDefaultOnEmptyAnswer(t *testing.T) {
	var out bytes.Buffer
	prompter := NewLinePrompter(strings.NewReader("\n3\n"), &out, nil)

	first, err := prompter.Prompt(context.Background(), "Pick:", "1")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	second, err := prompter.Prompt(context.Background(), "Pick:", "1")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if first != "1" || second != "3" {
		t.Fatalf("unexpected answers %q %q", first, second)
	}
	if !strings.Contains(out.String(), "Pick: [1]") {
		t.Fatalf("expected label with default, got %q", out.String())
	}
}

func TestPromptInterruptedOnEOF(t *testing.T) {
	prompter := NewLinePrompter(strings.NewReader(""), &bytes.Buffer{}, nil)

	if _, err := prompter.Prompt(context.Background(), "Pick:", "1"); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
}

func TestPasswordFromPipe(t *testing.T) {
	prompter := NewLinePrompter(strings.NewReader("s3cret\n"), &bytes.Buffer{}, nil)

	secret, err := prompter.Password(context.Background(), "Password:")
	if err != nil {
		t.Fatalf("password: %v", err)
	}
	if secret != "s3cret" {
		t.Fatalf("unexpected password %q", secret)
	}
}
