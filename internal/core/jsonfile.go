package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorrupt is returned when a JSON file exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt json file")

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ReadJSON decodes the file at path over out. Values already present in out act
// as defaults: stored keys win, absent keys keep their default. A missing file
// reports found=false and no error.
func ReadJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return true, nil
}

// WriteJSON writes value as indented JSON. The file is replaced atomically so a
// reader never sees a half written document; concurrent writers are not merged.
func WriteJSON(path string, value any) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
