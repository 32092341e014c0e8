package uploads

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), []string{"png", "jpg", "jpeg", "gif"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestSaveReturnsRelativePath(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save("r1.png", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rel != "uploads/r1.png" {
		t.Fatalf("Save returned %q, want uploads/r1.png", rel)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "r1.png"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Fatalf("file content = %q", data)
	}
}

func TestSaveOverwritesSameName(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save("r1.png", strings.NewReader("first")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save("r1.png", strings.NewReader("second")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(store.Dir(), "r1.png"))
	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"script.exe", "doc.pdf", "noext"} {
		if _, err := store.Save(name, strings.NewReader("x")); !errors.Is(err, ErrDisallowedExtension) {
			t.Fatalf("Save(%q): expected ErrDisallowedExtension, got %v", name, err)
		}
	}
}

func TestSaveStripsPathTraversal(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save("../../evil.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rel != "uploads/evil.png" {
		t.Fatalf("Save returned %q", rel)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "evil.png")); err != nil {
		t.Fatalf("file not inside upload dir: %v", err)
	}
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	rel, err := store.Save("r1.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Remove(rel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "r1.png")); !os.IsNotExist(err) {
		t.Fatalf("file still exists after Remove")
	}

	if err := store.Remove("etc/passwd"); !errors.Is(err, ErrUnsafeFilename) {
		t.Fatalf("expected ErrUnsafeFilename for path outside prefix, got %v", err)
	}
	if err := store.Remove("uploads/../x.png"); !errors.Is(err, ErrUnsafeFilename) {
		t.Fatalf("expected ErrUnsafeFilename for nested path, got %v", err)
	}
}

func TestList(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save("a.png", strings.NewReader("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save("b.jpg", strings.NewReader("y")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %v", got)
	}
	for _, p := range got {
		if !strings.HasPrefix(p, "uploads/") {
			t.Fatalf("path %q missing prefix", p)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"r1.png":              "r1.png",
		"my receipt.jpg":      "my_receipt.jpg",
		"../../etc/passwd":    "passwd",
		`..\..\win\evil.png`:  "evil.png",
		".hidden.png":         "hidden.png",
		"café-receipt.png":    "caf-receipt.png",
		"  spaced  name.gif ": "spaced__name.gif",
	}
	for in, want := range cases {
		got, err := SanitizeFilename(in)
		if err != nil {
			t.Fatalf("SanitizeFilename(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "...", "///", "日本語"} {
		if _, err := SanitizeFilename(in); !errors.Is(err, ErrUnsafeFilename) {
			t.Fatalf("SanitizeFilename(%q): expected ErrUnsafeFilename, got %v", in, err)
		}
	}
}
