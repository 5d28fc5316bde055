package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/google/uuid"
)

// AllowedImageExtensions is the upload allow-list.
var AllowedImageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	Body     io.Reader
}

// UploadStore writes user images to a fixed directory.
type UploadStore struct {
	dir      string
	maxBytes int64
}

// NewUploadStore creates dir if needed.
func NewUploadStore(dir string, maxBytes int64) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory files are stored in.
func (s *UploadStore) Dir() string { return s.dir }

// MaxBytes returns the per-file size limit.
func (s *UploadStore) MaxBytes() int64 { return s.maxBytes }

// AllowedImage reports whether filename carries an allowed image extension.
func AllowedImage(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return AllowedImageExtensions[strings.ToLower(filename[i+1:])]
}

// SanitizeFilename strips any directory part and keeps only letters, digits,
// '.', '_' and '-'. Whitespace becomes '_'.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// Save stores u under a uuid-prefixed sanitized name and returns that name.
func (s *UploadStore) Save(u Upload) (string, error) {
	clean := SanitizeFilename(u.Filename)
	if clean == "" || !AllowedImage(clean) {
		return "", domain.ErrValidation("Profile picture must be a png, jpg, jpeg or gif file.")
	}
	name := uuid.NewString() + "_" + clean

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", domain.ErrInternal("create upload", err)
	}

	n, err := io.Copy(f, io.LimitReader(u.Body, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = errTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, errTooLarge) {
			return "", domain.ErrValidation(fmt.Sprintf("Profile picture must be at most %d bytes.", s.maxBytes))
		}
		return "", domain.ErrInternal("write upload", err)
	}
	return name, nil
}

var errTooLarge = errors.New("upload too large")

// Remove deletes a stored file. Missing files are ignored.
func (s *UploadStore) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
