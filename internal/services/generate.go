package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/rest"
	"github.com/appear/aiq/internal/skeleton"
)

const jsAPIDir = "aiq"

// GenerateParams configure GenerateApp. Path is the workspace the application
// folder is created in.
type GenerateParams struct {
	Path     string
	APILevel string
}

// GenerateResult describes the generated application.
type GenerateResult struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	APILevel int    `json:"apiLevel"`
}

// GenerateApp creates a new application folder from the skeleton and the
// latest JS API bundle.
func (s *Services) GenerateApp(ctx context.Context, name string, params GenerateParams) (*GenerateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError(MsgNameRequired)
	}
	level := 0
	if params.APILevel != "" {
		parsed, err := parseAPILevel(params.APILevel)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	workspace := params.Path
	if workspace == "" {
		workspace = s.cwd
	}
	appPath := filepath.Join(workspace, name)

	if err := skeleton.Extract(appPath); err != nil {
		if errors.Is(err, skeleton.ErrExists) {
			return nil, ioError(folderExists(appPath), err)
		}
		return nil, ioError(MsgWorkspaceUnusable, err)
	}

	bundleLevel, err := s.fetchJSAPI(ctx, filepath.Join(appPath, jsAPIDir))
	if err != nil {
		if removeErr := os.RemoveAll(appPath); removeErr != nil {
			s.logger.Warn("failed to remove partial application", "path", appPath, "error", removeErr)
		}
		if errors.Is(err, rest.ErrAborted) {
			return nil, remoteError(err, nil)
		}
		return nil, &Error{Kind: KindRemote, Message: MsgJSAPIDownload, Err: err}
	}
	if level == 0 {
		level = bundleLevel
	}
	if level < 1 || level > 65535 {
		level = 1
	}

	manifest := core.Manifest{Name: name, MinJSAPILevel: level}
	if err := core.SaveManifest(appPath, manifest); err != nil {
		return nil, ioError("Could not write the application manifest.", err)
	}
	return &GenerateResult{Name: name, Path: appPath, APILevel: level}, nil
}

// fetchJSAPI downloads the JS API bundle, unpacks it into dest and returns the
// API level declared in its package.json.
func (s *Services) fetchJSAPI(ctx context.Context, dest string) (int, error) {
	tmp, err := os.CreateTemp(s.tempDir, "aiq-jsapi-*.zip")
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jsAPIURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, rest.ErrAborted
		}
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return 0, rest.ErrAborted
		}
		return 0, err
	}
	s.logger.Debug("js api bundle downloaded", "url", s.jsAPIURL, "size", size)

	reader, err := zip.NewReader(tmp, size)
	if err != nil {
		return 0, err
	}
	if err := unzip(reader, dest); err != nil {
		return 0, err
	}
	return readBundleLevel(filepath.Join(dest, "package.json")), nil
}

func unzip(reader *zip.Reader, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, file := range reader.File {
		name := filepath.FromSlash(file.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("illegal path in bundle: %s", file.Name)
		}
		target := filepath.Join(dest, name)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// readBundleLevel returns the leading integer of the "level" field, or 0.
func readBundleLevel(path string) int {
	var info struct {
		Level core.ID `json:"level"`
	}
	if _, err := core.ReadJSON(path, &info); err != nil {
		return 0
	}
	raw := strings.TrimSpace(info.Level.String())
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	level, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return level
}
