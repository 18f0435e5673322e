// Package skeleton ships the starter application written by "aiq generate".
package skeleton

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed all:files
var embedded embed.FS

// ErrExists is returned when the target directory is already present.
var ErrExists = errors.New("target directory already exists")

// Files returns the skeleton tree rooted at its top directory.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// Extract writes the skeleton into dst. The parent of dst must exist and dst
// itself must not.
func Extract(dst string) error {
	return ExtractFS(Files(), dst)
}

// ExtractFS writes every entry of src into dst.
func ExtractFS(src fs.FS, dst string) error {
	if err := os.Mkdir(dst, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	err := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}

		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := fs.ReadFile(src, path)
		if err != nil {
			return fmt.Errorf("failed to read skeleton file %s: %w", path, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", target, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to extract skeleton: %w", err)
	}
	return nil
}
