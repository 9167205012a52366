package archive

import (
	"archive/zip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeTestArchive(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s) error = %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func TestWalk(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"locales/locales-en-US.xml": "<locale/>",
		"locales/locales-de-DE.xml": "<locale/>",
		"locales/README.md":         "readme",
		"styles/apa.csl":            "<style/>",
	})

	t.Run("pattern filters entries", func(t *testing.T) {
		var visited []string
		err := Walk(path, "locales/locales-", func(_ string, f *zip.File) error {
			visited = append(visited, f.FileHeader.Name)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		if len(visited) != 2 {
			t.Errorf("visited %v, want the two locale files", visited)
		}
	})

	t.Run("empty pattern visits everything", func(t *testing.T) {
		count := 0
		err := Walk(path, "", func(_ string, _ *zip.File) error {
			count++
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		if count != 4 {
			t.Errorf("visited %d entries, want 4", count)
		}
	})

	t.Run("walk function error stops traversal", func(t *testing.T) {
		sentinel := errors.New("stop")
		count := 0
		err := Walk(path, "", func(_ string, _ *zip.File) error {
			count++
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("Walk() error = %v, want sentinel", err)
		}
		if count != 1 {
			t.Errorf("visited %d entries after error, want 1", count)
		}
	})

	t.Run("missing archive", func(t *testing.T) {
		err := Walk(filepath.Join(t.TempDir(), "nope.zip"), "", func(_ string, _ *zip.File) error {
			return nil
		})
		if err == nil {
			t.Error("expected error for missing archive")
		}
	})
}

func TestWalkRejectsUnsafePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	w := zip.NewWriter(f)
	entry, err := w.CreateRaw(&zip.FileHeader{Name: "../escape.xml"})
	if err != nil {
		t.Fatalf("CreateRaw() error = %v", err)
	}
	if _, err := entry.Write([]byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	f.Close()

	err = Walk(path, "", func(_ string, _ *zip.File) error { return nil })
	if err == nil {
		t.Error("expected error for traversal entry")
	}
}

func TestReadFile(t *testing.T) {
	path := writeTestArchive(t, map[string]string{
		"locales-master/locales-en-US.xml": "<locale>en</locale>",
		"locales-master/locales-de-DE.xml": "<locale>de</locale>",
	})

	t.Run("matches base name under any directory", func(t *testing.T) {
		data, err := ReadFile(path, "locales-de-DE.xml")
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "<locale>de</locale>" {
			t.Errorf("ReadFile() = %q", data)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := ReadFile(path, "locales-fr-FR.xml")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("ReadFile() error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"relative", "locales/locales-en-US.xml", true},
		{"absolute", "/etc/passwd", false},
		{"backslash", `\windows\system32`, false},
		{"traversal", "locales/../../escape", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isSafePath(tc.path); got != tc.want {
				t.Errorf("isSafePath(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}
