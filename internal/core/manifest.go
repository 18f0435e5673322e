package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ManifestFileName is the descriptor kept at the root of every application.
const ManifestFileName = "manifest.json"

// Manifest describes how an application folder is packaged and published.
type Manifest struct {
	Name          string `json:"name,omitempty"`
	MinJSAPILevel int    `json:"minJsApiLevel"`
	Mock          bool   `json:"mock,omitempty"`
	IconPath      string `json:"iconPath,omitempty"`
	ID            ID     `json:"id,omitzero"`
	SolutionID    ID     `json:"solutionId,omitzero"`

	// Extra keeps keys this client does not interpret so saving the manifest
	// does not drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

var manifestKeys = []string{"name", "minJsApiLevel", "mock", "iconPath", "id", "solutionId"}

type manifestFields Manifest

func (m *Manifest) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*manifestFields)(m)); err != nil {
		return err
	}
	extra, err := SplitExtra(data, manifestKeys)
	if err != nil {
		return err
	}
	m.Extra = extra
	return nil
}

func (m Manifest) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(manifestFields(m))
	if err != nil {
		return nil, err
	}
	return MergeExtra(data, m.Extra)
}

// ManifestPath returns the manifest location for an application folder.
func ManifestPath(appPath string) string {
	return filepath.Join(appPath, ManifestFileName)
}

// IsAppDir reports whether path exists and is a directory.
func IsAppDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LoadManifest reads the manifest of appPath, defaulting minJsApiLevel to 1.
func LoadManifest(appPath string) (*Manifest, error) {
	if !IsAppDir(appPath) {
		return nil, fmt.Errorf("not an application folder: %s", appPath)
	}
	manifest := Manifest{MinJSAPILevel: 1}
	path := ManifestPath(appPath)
	if _, err := ReadJSON(path, &manifest); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		slog.Warn("ignoring corrupt manifest", "path", path, "error", err)
		manifest = Manifest{MinJSAPILevel: 1}
	}
	return &manifest, nil
}

// SaveManifest writes the manifest into appPath.
func SaveManifest(appPath string, manifest Manifest) error {
	return WriteJSON(ManifestPath(appPath), manifest)
}

// ManifestSnapshot is the exact on-disk state of a manifest file.
type ManifestSnapshot struct {
	path   string
	data   []byte
	exists bool
}

// SnapshotManifest captures the manifest bytes of appPath, or their absence.
func SnapshotManifest(appPath string) (ManifestSnapshot, error) {
	path := ManifestPath(appPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ManifestSnapshot{path: path}, nil
		}
		return ManifestSnapshot{}, err
	}
	return ManifestSnapshot{path: path, data: data, exists: true}, nil
}

// Restore puts the file back byte for byte, removing it if it did not exist.
func (s ManifestSnapshot) Restore() error {
	if s.path == "" {
		return nil
	}
	if !s.exists {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, s.data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
