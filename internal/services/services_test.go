package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/ui"
)

type scriptedPrompter struct {
	mu      sync.Mutex
	answers []string
	asked   int
}

func (p *scriptedPrompter) Prompt(ctx context.Context, label, def string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.asked >= len(p.answers) {
		return "", ui.ErrInterrupted
	}
	answer := p.answers[p.asked]
	p.asked++
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *scriptedPrompter) Password(ctx context.Context, label string) (string, error) {
	return p.Prompt(ctx, label, "")
}

type fixture struct {
	services   *Services
	out        *bytes.Buffer
	prompter   *scriptedPrompter
	clock      *clockwork.FakeClock
	configPath string
	appDir     string
	tempDir    string
}

type fixtureOption func(*Options)

func newFixture(t *testing.T, config core.Config, opts ...fixtureOption) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		out:        &bytes.Buffer{},
		prompter:   &scriptedPrompter{},
		clock:      clockwork.NewFakeClock(),
		configPath: filepath.Join(root, "config.json"),
		appDir:     filepath.Join(root, "app"),
		tempDir:    filepath.Join(root, "tmp"),
	}
	for _, dir := range []string{f.appDir, f.tempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := core.SaveConfig(f.configPath, config); err != nil {
		t.Fatalf("save config: %v", err)
	}

	options := Options{
		ConfigPath: f.configPath,
		Cwd:        f.appDir,
		Printer:    ui.NewPrinter(f.out, ui.WithColor(false)),
		Prompter:   f.prompter,
		Clock:      f.clock,
		TempDir:    f.tempDir,
	}
	for _, opt := range opts {
		opt(&options)
	}
	svc, err := New(options)
	if err != nil {
		t.Fatalf("new services: %v", err)
	}
	f.services = svc
	return f
}

func loggedIn(baseURL string) core.Config {
	return core.Config{BaseURL: baseURL, AccessToken: "token", UserID: core.NumericID(9), Username: "u"}
}

func (f *fixture) writeApp(t *testing.T, manifest string, files map[string]string) {
	t.Helper()
	if manifest != "" {
		if err := os.WriteFile(core.ManifestPath(f.appDir), []byte(manifest), 0o644); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
	for name, content := range files {
		path := filepath.Join(f.appDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func (f *fixture) manifestBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(core.ManifestPath(f.appDir))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	return data
}

func (f *fixture) assertNoArchives(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dir to be empty, found %d entries", len(entries))
	}
}

func expectError(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if svcErr.Kind != kind || svcErr.Message != msg {
		t.Fatalf("expected %s %q, got %s %q", kind, msg, svcErr.Kind, svcErr.Message)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// unexpectedServer fails the test on any request.
func unexpectedServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetURL(t *testing.T) {
	f := newFixture(t, loggedIn("http://server.name"))

	if got := f.services.getURL("app", "%2Fencode%20me"); got != "http://server.name/admin/applications/%2Fencode%20me" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := f.services.getURL("logout"); got != "http://server.name/admin/logout" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestErrorKinds(t *testing.T) {
	err := validationError(MsgNameRequired)
	if !IsKind(err, KindValidation) || IsKind(err, KindAuth) {
		t.Fatalf("unexpected kind for %v", err)
	}
	wrapped := ioError("Could not write.", os.ErrPermission)
	if !errors.Is(wrapped, os.ErrPermission) {
		t.Fatalf("expected io error to unwrap to the cause")
	}
}
