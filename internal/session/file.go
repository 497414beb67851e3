package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/portal/internal/portal"
)

// ErrSignedOut is returned when no session file exists or it holds no token.
var ErrSignedOut = errors.New("not signed in")

// File is the on-disk session.
type File struct {
	Token   string      `json:"token"`
	User    portal.User `json:"user"`
	SavedAt time.Time   `json:"saved_at"`
}

// LoadFile reads the session file. A missing file or empty token is ErrSignedOut.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from config
	if errors.Is(err, os.ErrNotExist) {
		return File{}, ErrSignedOut
	}
	if err != nil {
		return File{}, fmt.Errorf("reading session file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parsing session file: %w", err)
	}
	if f.Token == "" {
		return File{}, ErrSignedOut
	}
	return f, nil
}

// SaveFile writes f with owner-only permissions.
func SaveFile(path string, f File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

// RemoveFile deletes the session file. A missing file is not an error.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
