package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsSecureFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.png", true},
		{"a1b2c3-uuid.webp", true},
		{"", false},
		{".hidden", false},
		{"..", false},
		{"../../etc/passwd", false},
		{"dir/file.png", false},
		{"dir\\file.png", false},
		{"/etc/passwd", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := isSecureFilename(tt.filename); got != tt.want {
				t.Errorf("isSecureFilename(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestLocalStorageSaveAndDelete(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	// Variant directories are created up front.
	for _, v := range variants {
		if _, err := os.Stat(filepath.Join(base, v)); err != nil {
			t.Errorf("variant dir %s: %v", v, err)
		}
	}

	if err := store.Save("original", "a.png", []byte("data")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := os.ReadFile(store.Path("original", "a.png"))
	if err != nil || string(got) != "data" {
		t.Errorf("stored content = %q err = %v", got, err)
	}

	// A second save of the same name must not overwrite.
	err = store.Save("original", "a.png", []byte("other"))
	if !errors.Is(err, ErrFileExists) {
		t.Errorf("duplicate save = %v, want ErrFileExists", err)
	}

	if err := store.Delete("original", "a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Deleting a missing file is not an error.
	if err := store.Delete("original", "a.png"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalStorageRejectsBadInput(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	if err := store.Save("original", "../escape.png", nil); !errors.Is(err, ErrInsecureFilename) {
		t.Errorf("Save traversal = %v, want ErrInsecureFilename", err)
	}
	if err := store.Save("thumbnails", "a.png", nil); !errors.Is(err, ErrInvalidVariant) {
		t.Errorf("Save unknown variant = %v, want ErrInvalidVariant", err)
	}
	if p := store.Path("original", "../escape.png"); p != "" {
		t.Errorf("Path traversal = %q, want empty", p)
	}
	if p := store.Path("nope", "a.png"); p != "" {
		t.Errorf("Path unknown variant = %q, want empty", p)
	}
}
