package services

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"github.com/appear/aiq/internal/core"
)

func bundle(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func jsAPIServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func withJSAPI(url string) fixtureOption {
	return func(o *Options) {
		o.JSAPIURL = url
	}
}

func TestGenerateAppUsesBundleLevel(t *testing.T) {
	server := jsAPIServer(t, http.StatusOK, bundle(t, map[string]string{
		"package.json": `{"name":"aiq-api","level":"4"}`,
		"aiq-api.js":   "window.aiq = {};",
	}))
	f := newFixture(t, core.Config{}, withJSAPI(server.URL))

	result, err := f.services.GenerateApp(context.Background(), " demo ", GenerateParams{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	appPath := filepath.Join(f.appDir, "demo")
	if diff := cmp.Diff(&GenerateResult{Name: "demo", Path: appPath, APILevel: 4}, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"index.html", "js/app.js", "aiq/aiq-api.js", "aiq/package.json"} {
		if _, err := os.Stat(filepath.Join(appPath, filepath.FromSlash(name))); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	manifest, err := core.LoadManifest(appPath)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if manifest.Name != "demo" || manifest.MinJSAPILevel != 4 {
		t.Fatalf("unexpected manifest %#v", manifest)
	}
	f.assertNoArchives(t)
}

func TestGenerateAppExplicitLevelWins(t *testing.T) {
	server := jsAPIServer(t, http.StatusOK, bundle(t, map[string]string{"package.json": `{"level":4}`}))
	f := newFixture(t, core.Config{}, withJSAPI(server.URL))
	workspace := t.TempDir()

	result, err := f.services.GenerateApp(context.Background(), "demo", GenerateParams{Path: workspace, APILevel: "12"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.APILevel != 12 || result.Path != filepath.Join(workspace, "demo") {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestGenerateAppFailures(t *testing.T) {
	valid := bundle(t, map[string]string{"package.json": `{"level":"1"}`})

	t.Run("blank name", func(t *testing.T) {
		f := newFixture(t, core.Config{}, withJSAPI(unexpectedServer(t).URL))
		_, err := f.services.GenerateApp(context.Background(), "  ", GenerateParams{})
		expectError(t, err, KindValidation, MsgNameRequired)
	})

	t.Run("bad level", func(t *testing.T) {
		f := newFixture(t, core.Config{}, withJSAPI(unexpectedServer(t).URL))
		_, err := f.services.GenerateApp(context.Background(), "demo", GenerateParams{APILevel: "x"})
		expectError(t, err, KindValidation, MsgBadAPILevel)
	})

	t.Run("folder exists", func(t *testing.T) {
		f := newFixture(t, core.Config{}, withJSAPI(jsAPIServer(t, http.StatusOK, valid).URL))
		existing := filepath.Join(f.appDir, "demo")
		if err := os.Mkdir(existing, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		_, err := f.services.GenerateApp(context.Background(), "demo", GenerateParams{})
		expectError(t, err, KindIO, "Folder ["+existing+"] already exists.")
	})

	t.Run("missing workspace", func(t *testing.T) {
		f := newFixture(t, core.Config{}, withJSAPI(jsAPIServer(t, http.StatusOK, valid).URL))
		_, err := f.services.GenerateApp(context.Background(), "demo", GenerateParams{Path: filepath.Join(f.appDir, "nope")})
		expectError(t, err, KindIO, MsgWorkspaceUnusable)
	})

	t.Run("download failure removes folder", func(t *testing.T) {
		f := newFixture(t, core.Config{}, withJSAPI(jsAPIServer(t, http.StatusInternalServerError, nil).URL))
		_, err := f.services.GenerateApp(context.Background(), "demo", GenerateParams{})
		expectError(t, err, KindRemote, MsgJSAPIDownload)
		if _, err := os.Stat(filepath.Join(f.appDir, "demo")); !os.IsNotExist(err) {
			t.Fatalf("expected partial app to be removed, stat err %v", err)
		}
	})

	t.Run("unsafe bundle", func(t *testing.T) {
		evil := bundle(t, map[string]string{"../escape.js": "x"})
		f := newFixture(t, core.Config{}, withJSAPI(jsAPIServer(t, http.StatusOK, evil).URL))
		_, err := f.services.GenerateApp(context.Background(), "demo", GenerateParams{})
		expectError(t, err, KindRemote, MsgJSAPIDownload)
		if _, err := os.Stat(filepath.Join(f.appDir, "demo", "escape.js")); !os.IsNotExist(err) {
			t.Fatalf("bundle escaped its folder")
		}
	})
}
