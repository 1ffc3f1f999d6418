// Package storage stores uploaded images on the local filesystem.  Files
// are renamed to a random UUID (keeping the original extension) so client
// filenames never reach the disk or the database; only the web path is
// persisted on the owning record.
package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// WebPrefix is the URL path uploads are served under.
const WebPrefix = "/uploads/"

// Local writes uploads beneath a single root directory.
type Local struct {
	root string
}

// NewLocal resolves the root directory, creating it when absent.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the resolved upload directory, for static-route registration.
func (l *Local) Root() string { return l.root }

// Save writes the uploaded file under a fresh UUID name and returns the web
// path to store on the record.
func (l *Local) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := ""
	if i := strings.LastIndex(fh.Filename, "."); i >= 0 {
		ext = fh.Filename[i:]
	}
	name := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(l.root, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return WebPrefix + name, nil
}
