// Package datadir manages the on-disk data directory where acai persists
// conversation history.
package datadir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DataDir is the root of acai's cache directory, ~/.cache/acai by default.
type DataDir struct {
	root string
}

// New creates (if needed) and returns the data directory. An empty root
// resolves to ~/.cache/acai.
func New(root string) (*DataDir, error) {
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		root = filepath.Join(home, ".cache", "acai")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return &DataDir{root: root}, nil
}

// Path returns the data directory root.
func (d *DataDir) Path() string { return d.root }

// LogPath returns the default log file path inside the data directory.
func (d *DataDir) LogPath() string {
	return filepath.Join(d.root, "acai.log")
}

// SaveHistory writes the conversation history as a timestamped JSON file
// under history/ and returns its path.
func (d *DataDir) SaveHistory(history interface{}) (string, error) {
	dir := filepath.Join(d.root, "history")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create history directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.json", time.Now().UnixMilli()))
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", fmt.Errorf("could not serialize history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("could not write history: %w", err)
	}
	return path, nil
}
