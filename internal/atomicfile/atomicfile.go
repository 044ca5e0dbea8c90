// Package atomicfile provides write-temp-then-rename persistence, the
// pattern every snapshot writer in this module shares.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteJSON marshals v as indented JSON and writes it to path atomically:
// write to path+".tmp", then rename over path. The temp file is removed if
// the rename fails.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadJSON loads and strictly decodes path into v, rejecting unknown fields.
func ReadJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
