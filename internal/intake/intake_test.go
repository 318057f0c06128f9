package intake

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/diewo77/factures-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"invoice1.pdf", "invoice1.pdf"},
		{"My Invoice.PDF", "My_Invoice.PDF"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\bob\facture.jpg`, "facture.jpg"},
		{"facture été.png", "facture_ete.png"},
		{".hidden.pdf", "hidden.pdf"},
		{"a$b%c.jpeg", "abc.jpeg"},
		{"..", ""},
		{"/", ""},
		{"???", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestAllowedExtension(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		ok   bool
	}{
		{"a.pdf", "pdf", true},
		{"a.PDF", "pdf", true},
		{"a.Jpeg", "jpeg", true},
		{"a.jpg", "jpg", true},
		{"a.png", "png", true},
		{"a.txt", "txt", false},
		{"a.pdf.exe", "exe", false},
		{"noext", "", false},
		{"trailing.", "", false},
	}
	for _, tt := range tests {
		ext, ok := AllowedExtension(tt.name)
		assert.Equal(t, tt.ext, ext, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
	}
}

func newService(t *testing.T, maxBytes int64) (*Service, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	s := New(store, maxBytes)
	n := 0
	s.newKey = func() string {
		n++
		return "key" + strings.Repeat("x", n)
	}
	return s, store
}

func TestAcceptStoresUnderGeneratedKey(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t, 0)

	f, err := s.Accept(ctx, "../Invoice 1.PDF", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "Invoice_1.PDF", f.Name)
	assert.Equal(t, "pdf", f.Ext)
	assert.Equal(t, "keyx.pdf", f.Key)
	assert.Equal(t, int64(8), f.Size)
	assert.True(t, f.IsPDF())

	data, err := storage.ReadAll(ctx, store, f.Key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Same(t, store, s.Store())
}

func TestAcceptSameNameTwiceDoesNotCollide(t *testing.T) {
	ctx := context.Background()
	s, store := newService(t, 0)

	a, err := s.Accept(ctx, "invoice1.pdf", strings.NewReader("alice"))
	require.NoError(t, err)
	b, err := s.Accept(ctx, "invoice1.pdf", strings.NewReader("bob"))
	require.NoError(t, err)
	require.NotEqual(t, a.Key, b.Key)

	da, _ := storage.ReadAll(ctx, store, a.Key)
	db, _ := storage.ReadAll(ctx, store, b.Key)
	assert.Equal(t, "alice", string(da))
	assert.Equal(t, "bob", string(db))
}

func TestAcceptRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		max      int64
		want     error
	}{
		{"empty filename", "", "x", 0, ErrInvalidFilename},
		{"blank filename", "   ", "x", 0, ErrInvalidFilename},
		{"sanitizes to nothing", "???", "x", 0, ErrInvalidFilename},
		{"txt", "notes.txt", "x", 0, ErrUnsupportedFormat},
		{"no extension", "invoice", "x", 0, ErrUnsupportedFormat},
		{"empty body", "a.png", "", 0, ErrEmptyFile},
		{"too large", "a.png", "12345", 4, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newService(t, tt.max)
			_, err := s.Accept(context.Background(), tt.filename, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			// Nothing left behind
			_, err = store.Open(context.Background(), "keyx.png")
			assert.ErrorIs(t, err, storage.ErrNotExist)
		})
	}
}

func TestAcceptNonLatinFilenames(t *testing.T) {
	tests := []struct {
		filename string
		name     string
		ext      string
	}{
		{"фактура.pdf", "document.pdf", "pdf"},
		{"発票.png", "document.png", "png"},
		{"€.jpg", "document.jpg", "jpg"},
		{"日本.PDF", "document.pdf", "pdf"},
		{"facture_фактура.jpeg", "facture_.jpeg", "jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			s, store := newService(t, 0)
			f, err := s.Accept(context.Background(), tt.filename, strings.NewReader("data"))
			require.NoError(t, err)
			assert.Equal(t, tt.name, f.Name)
			assert.Equal(t, tt.ext, f.Ext)
			assert.Equal(t, "keyx."+tt.ext, f.Key)

			data, err := storage.ReadAll(context.Background(), store, f.Key)
			require.NoError(t, err)
			assert.Equal(t, "data", string(data))
		})
	}
}

func TestAcceptRejectsNonLatinUnsupported(t *testing.T) {
	s, _ := newService(t, 0)
	_, err := s.Accept(context.Background(), "фактура.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestAcceptExactlyAtLimit(t *testing.T) {
	s, _ := newService(t, 4)
	f, err := s.Accept(context.Background(), "a.jpg", strings.NewReader("1234"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.Size)
}

type failingStore struct{ storage.Store }

func (failingStore) Put(context.Context, string, io.Reader) (int64, error) {
	return 0, errors.New("disk full")
}

func TestAcceptPropagatesStoreErrors(t *testing.T) {
	s := New(failingStore{}, 0)
	_, err := s.Accept(context.Background(), "a.pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
