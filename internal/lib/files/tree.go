package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// IsExcluded reports whether the slash separated relative path rel
// is one of exclude or lies below one of them.
func IsExcluded(rel string, exclude []string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false
	}
	for _, e := range exclude {
		e = strings.Trim(filepath.ToSlash(strings.TrimSpace(e)), "/")
		if e == "" {
			continue
		}
		if rel == e || strings.HasPrefix(rel, e+"/") {
			return true
		}
	}
	return false
}

// walkIncluded calls fn for every entry below root that is not excluded.
// Excluded directories are not descended into.
func walkIncluded(root string, exclude []string, fn func(path, rel string, info os.FileInfo) error) error {
	return afero.Walk(fileSystem.Fs(), root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if IsExcluded(rel, exclude) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(path, rel, info)
	})
}

// CopyTree copies every file and directory below src into dst,
// overwriting existing files and keeping file modes.
// Entries matching exclude are skipped. The walk stops before the
// next entry once ctx is done; a file already being copied is finished.
func CopyTree(ctx context.Context, src, dst string, exclude []string) error {
	if src == "" || dst == "" {
		return errors.Wrap(ErrInvalidArgument, "copy source and destination are required")
	}
	if err := fileSystem.MkdirAll(dst, 0755); err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	err := walkIncluded(src, exclude, func(path, rel string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fileSystem.MkdirAll(target, info.Mode().Perm()|0700)
		}
		return copyFile(path, target, info.Mode().Perm())
	})
	if err != nil {
		return errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := fileSystem.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer func() { _ = fileSystem.Close(in) }()

	if perm == 0 {
		perm = 0644
	}
	out, err := fileSystem.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = fileSystem.Close(out)
		return err
	}
	if err := fileSystem.Close(out); err != nil {
		return err
	}
	// OpenFile only applies perm to new files.
	return fileSystem.Chmod(dst, perm)
}

// FindUnwritable returns the files below root that cannot be opened
// for writing, skipping excluded paths.
func FindUnwritable(root string, exclude []string) ([]string, error) {
	if root == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "root path is empty")
	}
	if _, err := fileSystem.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "stat %s", root)
	}

	var unwritable []string
	err := walkIncluded(root, exclude, func(path, rel string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		f, err := fileSystem.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			unwritable = append(unwritable, path)
			return nil
		}
		return fileSystem.Close(f)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", root)
	}
	return unwritable, nil
}

// IsWritableDir reports whether a file can be created inside dir.
func IsWritableDir(dir string) bool {
	info, err := fileSystem.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	marker := filepath.Join(dir, ".selfupdate-write-test")
	f, err := fileSystem.OpenFile(marker, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return false
	}
	_ = fileSystem.Close(f)
	_ = fileSystem.Remove(marker)
	return true
}
