package files

import (
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// MockFileSystem implements FileSystem on top of an in-memory filesystem.
// Env replaces the process environment; the Func fields override single calls.
type MockFileSystem struct {
	Base afero.Fs
	Env  map[string]string

	OpenFileFunc      func(name string, flag int, perm os.FileMode) (afero.File, error)
	MkdirAllFunc      func(path string, perm os.FileMode) error
	StatFunc          func(name string) (os.FileInfo, error)
	UserConfigDirFunc func() (string, error)
	UserHomeDirFunc   func() (string, error)
	TempDirFunc       func() string
}

// NewMockFileSystem returns a MockFileSystem backed by a fresh MemMapFs.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{Base: afero.NewMemMapFs(), Env: map[string]string{}}
}

func (m *MockFileSystem) Fs() afero.Fs {
	return m
}

func (m *MockFileSystem) Create(name string) (afero.File, error) {
	return m.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path, perm)
	}
	return m.Base.MkdirAll(path, perm)
}

func (m *MockFileSystem) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if m.OpenFileFunc != nil {
		return m.OpenFileFunc(name, flag, perm)
	}
	return m.Base.OpenFile(name, flag, perm)
}

func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFunc != nil {
		return m.StatFunc(name)
	}
	return m.Base.Stat(name)
}

func (m *MockFileSystem) Remove(name string) error {
	return m.Base.Remove(name)
}

func (m *MockFileSystem) RemoveAll(path string) error {
	return m.Base.RemoveAll(path)
}

func (m *MockFileSystem) Rename(oldname, newname string) error {
	return m.Base.Rename(oldname, newname)
}

func (m *MockFileSystem) Chmod(name string, mode os.FileMode) error {
	return m.Base.Chmod(name, mode)
}

func (m *MockFileSystem) UserConfigDir() (string, error) {
	if m.UserConfigDirFunc != nil {
		return m.UserConfigDirFunc()
	}
	return "/home/test/.config", nil
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	if m.UserHomeDirFunc != nil {
		return m.UserHomeDirFunc()
	}
	return "/home/test", nil
}

func (m *MockFileSystem) TempDir() string {
	if m.TempDirFunc != nil {
		return m.TempDirFunc()
	}
	return "/tmp"
}

func (m *MockFileSystem) Getenv(key string) string {
	return m.Env[key]
}

func (m *MockFileSystem) Close(file afero.File) error {
	return file.Close()
}

// The afero.Fs methods below let walks and afero helpers go through the
// same overrides as direct calls.

func (m *MockFileSystem) Mkdir(name string, perm os.FileMode) error {
	return m.Base.Mkdir(name, perm)
}

func (m *MockFileSystem) Open(name string) (afero.File, error) {
	return m.OpenFile(name, os.O_RDONLY, 0)
}

func (m *MockFileSystem) Name() string {
	return "MockFileSystem"
}

func (m *MockFileSystem) Chown(name string, uid, gid int) error {
	return m.Base.Chown(name, uid, gid)
}

func (m *MockFileSystem) Chtimes(name string, atime, mtime time.Time) error {
	return m.Base.Chtimes(name, atime, mtime)
}

// MockHTTPClient is a mock implementation of HTTPClient
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
	Calls  int
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Calls++
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return nil, errors.New("mock not implemented")
}
