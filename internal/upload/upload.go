// Package upload stores user-submitted files on disk under timestamped
// names, the same layout the frontend links back to under /uploads/.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Allen20077/8berries/internal/logging"
)

// StoredFile describes one saved upload, as returned to the client.
type StoredFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// Store writes uploads to a single directory. Saved files are named
// "<unix-millis>-<original-name>" so repeated uploads never collide.
type Store struct {
	dir string
	log *logging.Logger

	// now is stubbed in tests.
	now func() int64
}

// NewStore creates the upload directory if needed and returns a store.
func NewStore(dir string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{dir: dir, log: log.Sub("upload")}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one upload to disk and returns its stored record.
func (s *Store) Save(name, contentType string, r io.Reader) (*StoredFile, error) {
	name = sanitizeName(name)
	stored := fmt.Sprintf("%d-%s", s.unixMillis(), name)
	path := filepath.Join(s.dir, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing upload: %w", err)
	}

	s.log.Info().Str("file", stored).Str("type", contentType).Msg("upload stored")
	return &StoredFile{Name: name, Path: path, Type: contentType}, nil
}

// sanitizeName strips any directory components from a client-supplied
// filename so uploads cannot escape the upload directory.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		name = "upload"
	}
	return name
}

func (s *Store) unixMillis() int64 {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UnixMilli()
}
