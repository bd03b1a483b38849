package files

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSave(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 16)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	name, n, err := store.Save(context.Background(), "../../etc/Casbah.JPG", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("image-bytes")) {
		t.Errorf("n = %d", n)
	}
	if filepath.Ext(name) != ".jpg" || strings.Contains(name, "/") {
		t.Errorf("name = %q, want a flat .jpg name", name)
	}
	data, err := os.ReadFile(filepath.Join(store.Root(), name))
	if err != nil || string(data) != "image-bytes" {
		t.Fatalf("stored file = %q, %v", data, err)
	}
}

func TestLocalStoreRejectsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewLocalStore(dir, 4)

	if _, _, err := store.Save(context.Background(), "big.png", strings.NewReader("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("partial file left behind: %v", entries)
	}
}
