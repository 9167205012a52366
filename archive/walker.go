// Package archive builds Walk abstraction on top of "archive/zip". The
// upstream CSL locales repository is distributed as a single zip file;
// this lets the locale loader read from such a bundle directly instead
// of requiring an unpacked directory.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed
// to Walk. The file argument is the zip.File structure for file in
// archive which satisfies match condition. If an error is returned,
// processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item. Entries with path traversal components
// ("..") or absolute paths are rejected to prevent Zip Slip attacks.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFile returns the contents of the named file from the archive. The
// name is matched against the entry base name, so bundles that keep
// their files under a top-level directory still resolve. A missing
// entry reports fs.ErrNotExist.
func ReadFile(archive, name string) ([]byte, error) {

	var data []byte
	found := false

	err := Walk(archive, "", func(_ string, f *zip.File) error {
		if found || path.Base(f.FileHeader.Name) != name {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		data, err = io.ReadAll(rc)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s in %s: %w", name, archive, fs.ErrNotExist)
	}
	return data, nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
