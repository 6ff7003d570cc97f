package files

import (
	"archive/zip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

const flattenStagingDir = ".selfupdate-staging"

// Unzip extracts the archive at src into dest.
// When deleteSource is set the archive is removed after a successful extraction.
func Unzip(src, dest string, deleteSource bool) error {
	if src == "" {
		return errors.Wrap(ErrInvalidArgument, "archive path is empty")
	}
	if dest == "" {
		return errors.Wrap(ErrInvalidArgument, "destination path is empty")
	}

	r, err := zipFileOpener.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.Warn("failed to close archive", "path", src, "error", err)
		}
	}()

	if err := fileSystem.MkdirAll(dest, 0755); err != nil {
		return errors.Wrap(err, "failed to create destination directory")
	}

	for _, f := range r.File() {
		if err := extractFile(f, dest); err != nil {
			return err
		}
	}

	if deleteSource {
		if err := Remove(src); err != nil {
			return errors.Wrapf(err, "remove archive %s", src)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	path := filepath.Join(dest, f.Name)

	// ZipSlip (directory traversal)
	if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
		return errors.Wrapf(ErrIllegalPath, "%s", f.Name)
	}

	if f.FileInfo().IsDir() {
		if err := fileSystem.MkdirAll(path, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", path)
		}
		return nil
	}

	if err := fileSystem.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", filepath.Dir(path))
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "open archive entry %s", f.Name)
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	out, err := fileSystem.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if err := fileSystem.Close(out); err != nil {
			slog.Warn("failed to close extracted file", "path", path, "error", err)
		}
	}()

	if _, err := io.Copy(out, rc); err != nil {
		return errors.Wrapf(err, "extract %s", f.Name)
	}
	return nil
}

// FlattenSingleRoot moves the contents of dir's only child directory up one
// level. Archives such as GitHub zipballs wrap everything in a folder named
// after the repository and commit; dirs holding anything else are left alone.
func FlattenSingleRoot(dir string) error {
	entries, err := afero.ReadDir(fileSystem.Fs(), dir)
	if err != nil {
		return errors.Wrapf(err, "read %s", dir)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	root := filepath.Join(dir, entries[0].Name())
	staging := filepath.Join(dir, flattenStagingDir)
	if err := moveTree(root, staging); err != nil {
		return err
	}
	return moveTree(staging, dir)
}

// moveTree moves every file below src to the same relative path below dst
// and removes src afterwards.
func moveTree(src, dst string) error {
	err := afero.Walk(fileSystem.Fs(), src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fileSystem.MkdirAll(target, 0755)
		}
		return fileSystem.Rename(path, target)
	})
	if err != nil {
		return errors.Wrapf(err, "move %s to %s", src, dst)
	}
	return fileSystem.RemoveAll(src)
}
