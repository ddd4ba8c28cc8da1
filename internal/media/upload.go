package media

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Extension allow-lists for uploaded assets.
var (
	ImageExtensions = []string{"jpg", "jpeg", "png"}
	VideoExtensions = []string{"mp4"}
)

// FileUpload is one file extracted from a multipart form.
type FileUpload struct {
	File     multipart.File
	Filename string
	Size     int64
}

// Close releases the underlying form file.
func (f *FileUpload) Close() {
	if f != nil && f.File != nil {
		_ = f.File.Close()
	}
}

// Extension returns the lower-cased filename extension without the dot.
func (f *FileUpload) Extension() string {
	if f == nil {
		return ""
	}
	ext := strings.TrimPrefix(path.Ext(f.Filename), ".")
	return strings.ToLower(ext)
}

// HasAllowedExtension reports whether the upload's extension is in the allow-list.
func (f *FileUpload) HasAllowedExtension(allowed []string) bool {
	ext := f.Extension()
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// StorageKey derives a fresh object key under prefix, keeping the original
// extension so the hosted URL stays recognizable.
func (f *FileUpload) StorageKey(prefix string) string {
	name := uuid.NewString()
	if ext := f.Extension(); ext != "" {
		name = name + "." + ext
	}
	return path.Join(prefix, name)
}

// OptionalFile extracts a form file when present. Absence is an ordinary
// (nil, false, nil) result, never a dereference hazard; a malformed part is
// an error.
func OptionalFile(r *http.Request, field string) (*FileUpload, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read form file %q: %w", field, err)
	}
	return &FileUpload{File: file, Filename: header.Filename, Size: header.Size}, true, nil
}

// RequireFile extracts a form file that must be present.
func RequireFile(r *http.Request, field string) (*FileUpload, error) {
	upload, ok, err := OptionalFile(r, field)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("form file %q is required", field)
	}
	return upload, nil
}
