package fs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":                "a",
		"docs/guide.pdf":       "guide",
		"docs/debug.log":       "log",
		"build/out.bin":        "bin",
		IgnoreFileName:         "*.log\nbuild/\n",
		"docs/nested/notes.md": "notes",
	})
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}

	patterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		t.Fatalf("ParseIgnoreFile() error = %v", err)
	}

	entries, err := Walk(root, NewIgnoreMatcher(patterns))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []Entry{
		{RelPath: "a.txt", Size: 1},
		{RelPath: "docs", IsDir: true},
		{RelPath: "docs/guide.pdf", Size: 5},
		{RelPath: "docs/nested", IsDir: true},
		{RelPath: "docs/nested/notes.md", Size: 5},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Walk() = %+v, want %+v", entries, want)
	}
}

func TestWalk_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})

	if _, err := Walk(filepath.Join(root, "a.txt"), NewIgnoreMatcher(nil)); err == nil {
		t.Error("Walk() on a file succeeded, want error")
	}
}
