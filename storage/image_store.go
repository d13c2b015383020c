package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedImageTypes is the upload MIME allow-list. Anything else is dropped
// silently rather than rejected with an error.
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// ImageStore keeps uploaded post images on disk under a single root
// directory that is served statically. Stored paths are relative so they can
// be handed to clients as-is.
type ImageStore struct {
	root string
	log  *zap.SugaredLogger
}

// NewImageStore creates the root directory if needed.
func NewImageStore(root string, log *zap.SugaredLogger) (*ImageStore, error) {
	if root == "" {
		root = "images"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image root %s: %w", root, err)
	}
	return &ImageStore{root: root, log: log}, nil
}

// Store writes the upload under a random hex key joined to the original
// filename and returns its relative path. Uploads with a MIME type outside
// the png/jpg/jpeg allow-list are dropped silently: ok is false and nothing
// is written. Errors are only storage failures for accepted types.
func (s *ImageStore) Store(file io.Reader, mimeType, originalName string) (string, bool, error) {
	if !allowedImageTypes[strings.ToLower(strings.TrimSpace(mimeType))] {
		return "", false, nil
	}

	key := strings.ReplaceAll(uuid.New().String(), "-", "") + "-" + filepath.Base(originalName)
	dst := filepath.Join(s.root, key)

	out, err := os.Create(dst)
	if err != nil {
		return "", false, fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(dst)
		return "", false, fmt.Errorf("write image file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(filepath.Base(s.root), key)), true, nil
}

// Delete removes a stored image by its relative path. Best-effort: a missing
// file is not an error, and any other failure is logged and swallowed.
func (s *ImageStore) Delete(relPath string) {
	if relPath == "" {
		return
	}
	// only the final key is trusted; this also blocks path traversal
	full := filepath.Join(s.root, filepath.Base(relPath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		if s.log != nil {
			s.log.Warnf("failed to delete image %s: %v", relPath, err)
		}
	}
}
