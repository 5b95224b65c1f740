package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iliyamo/connecthub/internal/config"
	"github.com/iliyamo/connecthub/internal/model"
)

// Store keeps processed media under a file name and hands back the
// reference saved on posts and profiles.
type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Open returns the store selected by cfg.Store ("local" or "cloudinary").
func Open(cfg config.MediaConfig) (Store, error) {
	switch cfg.Store {
	case "", "local":
		return NewLocalStore(cfg.UploadDir)
	case "cloudinary":
		return NewCloudinaryStore(cfg.CloudinaryURL, cfg.Folder)
	default:
		return nil, fmt.Errorf("unknown media store %q", cfg.Store)
	}
}

var errBadName = errors.New("invalid media file name")

// LocalStore writes files into one directory.  References are bare file
// names, served under the public uploads prefix.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

func cleanName(name string) (string, error) {
	base := filepath.Base(name)
	if base != name || base == "." || strings.HasPrefix(base, ".") {
		return "", errBadName
	}
	return base, nil
}

// Save writes data atomically: a reader never sees a half-written file.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", err
	}
	return name, nil
}

// Delete removes the file behind ref.  The default avatar and missing files
// are ignored.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	name := filepath.Base(ref)
	if name == model.DefaultAvatar || name == "." || strings.HasPrefix(name, ".") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
