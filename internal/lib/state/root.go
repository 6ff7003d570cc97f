package state

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
)

// NewVersionFile is the name of the marker file holding a version that was
// found to be newer than the installed one but has not been applied yet.
const NewVersionFile = "self-updater-new-version"

// State is what the updater remembers between runs.
type State struct {
	VersionInstalled string    `json:"version_installed"`
	UpdatedAt        time.Time `json:"updated_at"`
	Source           string    `json:"source,omitempty"`
}

var (
	marshalIndent = json.MarshalIndent
	now           = time.Now
)

// Store persists State as JSON and keeps the pending version marker
// next to the state file.
type Store struct {
	mu          sync.Mutex
	path        string
	fileManager FileManager
}

// New creates a Store for path; an empty path uses the default state file.
func New(path string) *Store {
	return NewWithFileManager(path, &DefaultFileManager{})
}

// NewWithFileManager creates a Store with a custom file manager (for testing)
func NewWithFileManager(path string, fm FileManager) *Store {
	if path == "" {
		path = files.GetStateFilePath()
	}
	return &Store{path: path, fileManager: fm}
}

// Path returns the location of the state file.
func (s *Store) Path() string {
	return s.path
}

// MarkerPath returns the location of the pending version marker.
func (s *Store) MarkerPath() string {
	return filepath.Join(filepath.Dir(s.path), NewVersionFile)
}

// Load reads the state file. A missing file yields an empty State.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (State, error) {
	var st State
	if !s.fileManager.FileExists(s.path) {
		return st, nil
	}
	data, err := s.fileManager.ReadFile(s.path)
	if err != nil {
		return st, errors.Wrapf(err, "read state file %s", s.path)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, errors.Wrapf(err, "parse state file %s", s.path)
	}
	return st, nil
}

// VersionInstalled returns the recorded installed version, or "".
func (s *Store) VersionInstalled() string {
	st, err := s.Load()
	if err != nil {
		return ""
	}
	return st.VersionInstalled
}

// RecordUpdate stores version as installed from source.
func (s *Store) RecordUpdate(source, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		// A corrupt state file gets replaced by the fresh record.
		st = State{}
	}
	st.VersionInstalled = version
	st.Source = source
	st.UpdatedAt = now().UTC()

	data, err := marshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	if err := s.fileManager.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, "write state file %s", s.path)
	}
	return nil
}

// PendingVersion returns the version stored in the marker file, or "".
func (s *Store) PendingVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	marker := s.MarkerPath()
	if !s.fileManager.FileExists(marker) {
		return ""
	}
	data, err := s.fileManager.ReadFile(marker)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Store) HasPendingVersion() bool {
	return s.PendingVersion() != ""
}

func (s *Store) SetPendingVersion(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fileManager.WriteFile(s.MarkerPath(), []byte(version), 0644); err != nil {
		return errors.Wrap(err, "write pending version")
	}
	return nil
}

func (s *Store) ClearPendingVersion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fileManager.Remove(s.MarkerPath()); err != nil {
		return errors.Wrap(err, "remove pending version")
	}
	return nil
}
