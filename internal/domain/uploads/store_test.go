package uploads

import (
	"errors"
	"os"
	"strings"
	"testing"
)

const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "http://api.test/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestSaveDataURL_PersistsAllowedImage(t *testing.T) {
	s := newTestStore(t)

	url, err := s.SaveDataURL("data:image/png;base64," + tinyPNG)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "http://api.test/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %q", url)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	path, err := s.Open(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
}

func TestSaveDataURL_RejectsDisallowedTypes(t *testing.T) {
	s := newTestStore(t)

	cases := []string{
		"data:text/plain;base64,aG9sYQ==",                   // tipo fuera de la lista
		"data:image/svg+xml;base64,PHN2Zz48L3N2Zz4=",        // svg no permitido
		"data:image/png;base64,aG9sYSBtdW5kbyBob2xhIG1hcw==", // declara png pero no lo es
		"data:image/png,no-base64",
		"no-es-data-url",
		"data:image/png;base64,",
		"data:image/png;base64,$$$",
	}
	for _, in := range cases {
		if _, err := s.SaveDataURL(in); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType for %q, got %v", in, err)
		}
	}
}

func TestOpen_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"../secret", "a/b.png", "", ".hidden", "..", "./x.png"} {
		if _, err := s.Open(name); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %q, got %v", name, err)
		}
	}
}
