package state

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
)

// FileManager defines the interface for file operations
type FileManager interface {
	FileExists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Remove(path string) error
}

// Manager defines the interface for reading and writing updater state
type Manager interface {
	Load() (State, error)
	VersionInstalled() string
	RecordUpdate(source, version string) error
	PendingVersion() string
	HasPendingVersion() bool
	SetPendingVersion(version string) error
	ClearPendingVersion() error
}

// DefaultFileManager implements FileManager using the files package
type DefaultFileManager struct{}

func (dfm *DefaultFileManager) FileExists(path string) bool {
	return files.FileExists(path)
}

func (dfm *DefaultFileManager) ReadFile(path string) ([]byte, error) {
	return files.ReadFile(path)
}

func (dfm *DefaultFileManager) WriteFile(path string, data []byte, perm os.FileMode) error {
	return files.WriteFile(path, data, perm)
}

func (dfm *DefaultFileManager) Remove(path string) error {
	return files.Remove(path)
}

// MockFileManager is a mock implementation for testing
type MockFileManager struct {
	FileExistsFunc func(path string) bool
	ReadFileFunc   func(path string) ([]byte, error)
	WriteFileFunc  func(path string, data []byte, perm os.FileMode) error
	RemoveFunc     func(path string) error
}

func (mfm *MockFileManager) FileExists(path string) bool {
	if mfm.FileExistsFunc != nil {
		return mfm.FileExistsFunc(path)
	}
	return false
}

func (mfm *MockFileManager) ReadFile(path string) ([]byte, error) {
	if mfm.ReadFileFunc != nil {
		return mfm.ReadFileFunc(path)
	}
	return nil, errors.New("mock read error")
}

func (mfm *MockFileManager) WriteFile(path string, data []byte, perm os.FileMode) error {
	if mfm.WriteFileFunc != nil {
		return mfm.WriteFileFunc(path, data, perm)
	}
	return nil
}

func (mfm *MockFileManager) Remove(path string) error {
	if mfm.RemoveFunc != nil {
		return mfm.RemoveFunc(path)
	}
	return nil
}

// MockManager keeps state in memory
type MockManager struct {
	State   State
	Pending string
	Records []string
}

func (m *MockManager) Load() (State, error) {
	return m.State, nil
}

func (m *MockManager) VersionInstalled() string {
	return m.State.VersionInstalled
}

func (m *MockManager) RecordUpdate(source, version string) error {
	m.State.Source = source
	m.State.VersionInstalled = version
	m.Records = append(m.Records, source+"@"+version)
	return nil
}

func (m *MockManager) PendingVersion() string {
	return m.Pending
}

func (m *MockManager) HasPendingVersion() bool {
	return m.Pending != ""
}

func (m *MockManager) SetPendingVersion(version string) error {
	m.Pending = version
	return nil
}

func (m *MockManager) ClearPendingVersion() error {
	m.Pending = ""
	return nil
}
