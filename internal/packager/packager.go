// Package packager zips an application folder for upload.
package packager

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// DefaultMaxSize is the largest archive the platform accepts.
const DefaultMaxSize int64 = 20 * 1024 * 1024

// MockDataDir holds fixtures that are only shipped in mock mode.
const MockDataDir = "mock-data"

var (
	defaultExcludes  = []string{"*.zip"}
	mockDataExcludes = []string{MockDataDir, MockDataDir + "/**"}
)

// Archive is a packaged application on disk.
type Archive struct {
	Path string
	Size int64
}

// Remove deletes the archive file.
func (a *Archive) Remove() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SizeLimitError is returned when the archive exceeds the configured ceiling.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("Application archive is too big (%s), the limit is %s.",
		humanize.IBytes(uint64(e.Size)), humanize.IBytes(uint64(e.Limit)))
}

// Option configures Pack.
type Option func(*config)

type config struct {
	includeMockData bool
	maxSize         int64
	tempDir         string
}

// WithMockData includes the mock-data subtree in the archive.
func WithMockData(include bool) Option {
	return func(c *config) {
		c.includeMockData = include
	}
}

// WithMaxSize overrides the archive size ceiling.
func WithMaxSize(n int64) Option {
	return func(c *config) {
		c.maxSize = n
	}
}

// WithTempDir sets the directory the archive is written to.
func WithTempDir(dir string) Option {
	return func(c *config) {
		c.tempDir = dir
	}
}

// Pack zips every regular file under folder. The partial archive is removed on
// any failure, including an oversized result.
func Pack(ctx context.Context, folder string, opts ...Option) (*Archive, error) {
	cfg := &config{
		maxSize: DefaultMaxSize,
		tempDir: os.TempDir(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	patterns := defaultExcludes
	if !cfg.includeMockData {
		patterns = append(append([]string{}, patterns...), mockDataExcludes...)
	}
	matchers, err := compile(patterns)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(folder)
	if err != nil {
		return nil, err
	}
	tempDir, err := filepath.Abs(cfg.tempDir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(tempDir, "aiq-"+uuid.NewString()+".zip")

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	counter := &countingWriter{w: out}

	if err := writeArchive(ctx, counter, root, path, matchers); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}

	if cfg.maxSize > 0 && counter.n > cfg.maxSize {
		_ = os.Remove(path)
		return nil, &SizeLimitError{Size: counter.n, Limit: cfg.maxSize}
	}
	return &Archive{Path: path, Size: counter.n}, nil
}

func writeArchive(ctx context.Context, w io.Writer, root, self string, excludes []glob.Glob) error {
	zw := zip.NewWriter(w)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if excluded(name, excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || path == self {
			return nil
		}
		return addFile(zw, path, name)
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to pack application: %w", err)
	}
	return zw.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}

func compile(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

func excluded(name string, matchers []glob.Glob) bool {
	for _, matcher := range matchers {
		if matcher.Match(name) {
			return true
		}
	}
	return false
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
