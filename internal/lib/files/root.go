package files

import (
	"archive/zip"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

var (
	// ErrInvalidArgument is returned when a required path argument is empty.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIllegalPath is returned when an archive entry escapes its destination.
	ErrIllegalPath = errors.New("illegal file path")
	// ErrUnexpectedStatus is returned when a download answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// FileSystem interface for filesystem operations
type FileSystem interface {
	Fs() afero.Fs
	Create(name string) (afero.File, error)
	MkdirAll(path string, perm os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (afero.File, error)
	Stat(name string) (os.FileInfo, error)
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldname, newname string) error
	Chmod(name string, mode os.FileMode) error
	UserConfigDir() (string, error)
	UserHomeDir() (string, error)
	TempDir() string
	Getenv(key string) string
	Close(file afero.File) error
}

// HTTPClient interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ZipArchive is an interface that abstracts the functionality
// of an opened zip archive.
type ZipArchive interface {
	File() []*zip.File
	Close() error
}

// ZipFileOpener is the interface for opening a zip file.
type ZipFileOpener interface {
	Open(name string) (ZipArchive, error)
}

// defaultFileSystem implements FileSystem using Afero
type defaultFileSystem struct {
	fs afero.Fs
}

// NewFileSystem wraps fs with the process environment and user directories.
func NewFileSystem(fs afero.Fs) FileSystem {
	return &defaultFileSystem{fs: fs}
}

func (d *defaultFileSystem) Fs() afero.Fs {
	return d.fs
}

func (d *defaultFileSystem) Create(name string) (afero.File, error) {
	return d.fs.Create(name)
}

func (d *defaultFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return d.fs.MkdirAll(path, perm)
}

func (d *defaultFileSystem) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return d.fs.OpenFile(name, flag, perm)
}

func (d *defaultFileSystem) Stat(name string) (os.FileInfo, error) {
	return d.fs.Stat(name)
}

func (d *defaultFileSystem) Remove(name string) error {
	return d.fs.Remove(name)
}

func (d *defaultFileSystem) RemoveAll(path string) error {
	return d.fs.RemoveAll(path)
}

func (d *defaultFileSystem) Rename(oldname, newname string) error {
	return d.fs.Rename(oldname, newname)
}

func (d *defaultFileSystem) Chmod(name string, mode os.FileMode) error {
	return d.fs.Chmod(name, mode)
}

func (d *defaultFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

func (d *defaultFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (d *defaultFileSystem) TempDir() string {
	return os.TempDir()
}

func (d *defaultFileSystem) Getenv(key string) string {
	return os.Getenv(key)
}

func (d *defaultFileSystem) Close(file afero.File) error {
	return file.Close()
}

// aferoZipArchive keeps the archive file open for as long as
// the zip entries are being read.
type aferoZipArchive struct {
	file   afero.File
	reader *zip.Reader
}

func (a *aferoZipArchive) File() []*zip.File {
	return a.reader.File
}

func (a *aferoZipArchive) Close() error {
	return a.file.Close()
}

// FileSystemZipOpener opens zip archives through the injected FileSystem.
type FileSystemZipOpener struct{}

func (o *FileSystemZipOpener) Open(name string) (ZipArchive, error) {
	f, err := fileSystem.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", name)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat archive %s", name)
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "read archive %s", name)
	}
	return &aferoZipArchive{file: f, reader: r}, nil
}

// Global variables for dependency injection
var (
	fileSystem    FileSystem    = NewFileSystem(afero.NewOsFs())
	httpClient    HTTPClient    = &http.Client{Timeout: 30 * time.Minute}
	zipFileOpener ZipFileOpener = &FileSystemZipOpener{}
)

// SetFileSystem sets the file system implementation
func SetFileSystem(fs FileSystem) {
	fileSystem = fs
}

// FS returns the file system implementation currently in use
func FS() FileSystem {
	return fileSystem
}

// SetHTTPClient sets the HTTP client implementation
func SetHTTPClient(client HTTPClient) {
	httpClient = client
}

// SetZipFileOpener sets the zip file opener implementation
func SetZipFileOpener(zfo ZipFileOpener) {
	zipFileOpener = zfo
}

// ResetDependencies resets all dependencies to their default implementations
func ResetDependencies() {
	fileSystem = NewFileSystem(afero.NewOsFs())
	httpClient = &http.Client{Timeout: 30 * time.Minute}
	zipFileOpener = &FileSystemZipOpener{}
	showProgress = false
}

func FileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := fileSystem.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil
}

// DirHasEntries reports whether path is a directory with at least one entry.
func DirHasEntries(path string) bool {
	if path == "" {
		return false
	}
	entries, err := afero.ReadDir(fileSystem.Fs(), path)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// ReadFile reads the whole file at path.
func ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(fileSystem.Fs(), path)
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := fileSystem.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create directory %s", filepath.Dir(path))
	}
	return afero.WriteFile(fileSystem.Fs(), path, data, perm)
}

// Remove deletes a single file, ignoring files that do not exist.
func Remove(path string) error {
	if err := fileSystem.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes path and everything below it.
func RemoveAll(path string) error {
	return fileSystem.RemoveAll(path)
}

func EnsureDirExists(path string) string {
	if _, err := fileSystem.Stat(path); os.IsNotExist(err) {
		if err := fileSystem.MkdirAll(path, 0755); err != nil {
			slog.Warn("failed to create directory", "path", path, "error", err)
		}
	}
	return path
}

// GetAppDataPath returns the path to the app data directory
// If the SELFUPDATE_HOME environment variable is set, it will use that path
// otherwise it will use the user's config directory
// e.g. /home/user/.config/selfupdate
func GetAppDataPath() string {
	if home := fileSystem.Getenv("SELFUPDATE_HOME"); home != "" {
		return EnsureDirExists(home)
	}
	userConfigDir, err := fileSystem.UserConfigDir()
	if err != nil {
		panic(err)
	}
	return EnsureDirExists(filepath.Join(userConfigDir, "selfupdate"))
}

// GetStateFilePath returns the default path of the state file
// e.g. /home/user/.config/selfupdate/state.json
func GetStateFilePath() string {
	return filepath.Join(GetAppDataPath(), "state.json")
}

// GetTempPath returns the path to the temp directory
// e.g. /tmp
func GetTempPath() string {
	return fileSystem.TempDir()
}

// GetDefaultDownloadPath returns the directory releases are downloaded to
// when a repository does not configure one.
// e.g. /tmp/selfupdate
func GetDefaultDownloadPath() string {
	return filepath.Join(GetTempPath(), "selfupdate")
}

// GetCachePath returns the path to the cache directory
// If SELFUPDATE_CACHE is set, it will use that path
// Otherwise:
//   - Linux: ~/.cache/selfupdate
//   - macOS: ~/Library/Caches/selfupdate
//   - Windows: %LOCALAPPDATA%\selfupdate\cache
func GetCachePath() string {
	if cache := fileSystem.Getenv("SELFUPDATE_CACHE"); cache != "" {
		return EnsureDirExists(cache)
	}

	userHomeDir, err := fileSystem.UserHomeDir()
	if err != nil {
		panic(err)
	}

	var cacheDir string
	switch runtime.GOOS {
	case "darwin":
		cacheDir = filepath.Join(userHomeDir, "Library", "Caches", "selfupdate")
	case "windows":
		localAppData := fileSystem.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = fileSystem.Getenv("APPDATA")
		}
		if localAppData != "" {
			cacheDir = filepath.Join(localAppData, "selfupdate", "cache")
		} else {
			cacheDir = filepath.Join(userHomeDir, ".selfupdate", "cache")
		}
	default:
		cacheDir = filepath.Join(userHomeDir, ".cache", "selfupdate")
	}

	return EnsureDirExists(cacheDir)
}

// GetLogFilePath returns the path of the rotating log file
// e.g. /home/user/.cache/selfupdate/selfupdate.log
func GetLogFilePath() string {
	return filepath.Join(GetCachePath(), "selfupdate.log")
}

// WriteStream copies r into a new file at path.
func WriteStream(path string, r io.Reader) error {
	out, err := fileSystem.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = fileSystem.Close(out)
		return err
	}
	return fileSystem.Close(out)
}
