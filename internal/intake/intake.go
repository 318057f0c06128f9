// Package intake validates uploaded invoice documents and writes them to blob storage.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"unicode"

	"github.com/diewo77/factures-api/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Sentinel errors returned by Accept.
var (
	ErrInvalidFilename   = errors.New("invalid filename")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("empty file")
	ErrTooLarge          = errors.New("file too large")
)

// fallbackName is the stem recorded when nothing of the client's survives Sanitize.
const fallbackName = "document"

// allowedExtensions lists accepted document types (lowercase, without dot).
var allowedExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// StoredFile references a document written to blob storage.
type StoredFile struct {
	// Key is the generated blob key, independent of client input.
	Key string
	// Name is the sanitized client filename.
	Name string
	// Ext is the lowercase extension without dot.
	Ext  string
	Size int64
}

// IsPDF reports whether the document is a PDF (as opposed to a single image).
func (f StoredFile) IsPDF() bool {
	return f.Ext == "pdf"
}

// Service accepts uploads into a blob store.
type Service struct {
	store    storage.Store
	maxBytes int64
	newKey   func() string
}

// New creates an intake service. maxBytes <= 0 disables the size limit.
func New(store storage.Store, maxBytes int64) *Service {
	return &Service{store: store, maxBytes: maxBytes, newKey: uuid.NewString}
}

// Store returns the blob store documents are written to.
func (s *Service) Store() storage.Store {
	return s.store
}

// Accept validates filename, then streams r to a fresh blob key.
func (s *Service) Accept(ctx context.Context, filename string, r io.Reader) (StoredFile, error) {
	if strings.TrimSpace(filename) == "" {
		return StoredFile{}, ErrInvalidFilename
	}
	name := Sanitize(filename)
	ext, ok := AllowedExtension(baseName(filename))
	if !ok {
		if name == "" {
			return StoredFile{}, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
		}
		return StoredFile{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	// Non-Latin stems sanitize away entirely.
	if !strings.HasSuffix(strings.ToLower(name), "."+ext) {
		name = fallbackName + "." + ext
	}

	file := StoredFile{
		Key:  s.newKey() + "." + ext,
		Name: name,
		Ext:  ext,
	}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := s.store.Put(ctx, file.Key, src)
	if err != nil {
		return StoredFile{}, fmt.Errorf("store %s: %w", name, err)
	}
	file.Size = n

	switch {
	case n == 0:
		s.Discard(ctx, file)
		return StoredFile{}, ErrEmptyFile
	case s.maxBytes > 0 && n > s.maxBytes:
		s.Discard(ctx, file)
		return StoredFile{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
	}

	slog.Info("document stored", "key", file.Key, "name", file.Name, "size", file.Size)
	return file, nil
}

// Discard removes a stored document. Failures are logged, not returned.
func (s *Service) Discard(ctx context.Context, file StoredFile) {
	if err := s.store.Delete(ctx, file.Key); err != nil {
		slog.Warn("failed to discard stored document", "key", file.Key, "error", err)
	}
}

// AllowedExtension returns the lowercase extension of name and whether it is accepted.
func AllowedExtension(name string) (string, bool) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[dot+1:])
	return ext, allowedExtensions[ext]
}

// Sanitize reduces a client filename to a safe base name: directories are
// dropped, accents are folded to ASCII, whitespace becomes "_", characters
// outside [A-Za-z0-9._-] are removed and leading/trailing dots and
// underscores are trimmed. The result may be empty.
func Sanitize(filename string) string {
	base := norm.NFKD.String(baseName(filename))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// baseName drops any client directories, either separator style.
func baseName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	return base
}
