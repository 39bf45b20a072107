package imagegen

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	pkgerrors "github.com/angelmondragon/retailpipe/pkg/errors"
)

const artifactExt = ".png"

// Mirror copies stored artifacts to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ArtifactStore keeps one image file per product key in a local directory.
// The presence of a file is the signal that a key is done.
type ArtifactStore struct {
	dir     string
	refBase string
}

// NewArtifactStore creates the directory if needed. refBase prefixes the
// relative references recorded on products.
func NewArtifactStore(dir, refBase string) (*ArtifactStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeEnvironment, "artifact directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "create artifact directory")
	}
	return &ArtifactStore{dir: dir, refBase: refBase}, nil
}

// FileName is the artifact file name for key.
func FileName(key string) string {
	return key + artifactExt
}

// Path is the absolute location of the artifact for key.
func (s *ArtifactStore) Path(key string) string {
	return filepath.Join(s.dir, FileName(key))
}

// Ref is the relative reference stored in a product's image_ref.
func (s *ArtifactStore) Ref(key string) string {
	return path.Join(s.refBase, FileName(key))
}

// Exists reports whether a complete artifact is present for key.
func (s *ArtifactStore) Exists(key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	info, err := os.Stat(s.Path(key))
	if err == nil {
		return info.Mode().IsRegular(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "stat artifact")
}

// Save writes data durably: a temp file in the same directory is synced and
// renamed over the final name, so a partial file is never visible.
func (s *ArtifactStore) Save(key string, data []byte) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "create temp artifact")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "write artifact")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "sync artifact")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "close artifact")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return "", pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "chmod artifact")
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		cleanup()
		return "", pkgerrors.Wrap(pkgerrors.CodeEnvironment, err, "rename artifact")
	}
	return s.Ref(key), nil
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid artifact key").
			WithDetails(map[string]any{"key": key})
	}
	return nil
}
