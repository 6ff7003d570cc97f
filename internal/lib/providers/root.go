package providers

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/log"
	"golang.org/x/oauth2"
)

// AccessTokenPrefix is put in front of the access token in Authorization headers.
const AccessTokenPrefix = "Bearer "

const defaultTimeout = 10 * time.Minute

var (
	// ErrUnsupportedType is returned for repository types without a creator.
	ErrUnsupportedType = errors.New("unsupported repository type")
	// ErrUnexpectedResponse is returned when a repository answers with an error status.
	ErrUnexpectedResponse = errors.New("unexpected repository response")
)

var Logger = log.NewLogger()

// Release is one downloadable version of the application.
type Release struct {
	Version     string    `json:"version"`
	Name        string    `json:"name,omitempty"`
	DownloadURL string    `json:"download_url"`
	Notes       string    `json:"notes,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	ArchivePath string    `json:"archive_path,omitempty"`
	StoragePath string    `json:"storage_path,omitempty"`
}

// Base holds what every repository type shares: access token handling,
// the download helper and the on-disk layout of fetched releases.
type Base struct {
	name        string
	cfg         config.RepositoryConfig
	accessToken string
	client      *http.Client
	prepend     string
	appendix    string
}

func NewBase(name string, cfg config.RepositoryConfig) *Base {
	prepend, appendix := cfg.FilenameAffixes()
	return &Base{
		name:        name,
		cfg:         cfg,
		accessToken: cfg.PrivateAccessToken,
		client:      &http.Client{Timeout: defaultTimeout},
		prepend:     prepend,
		appendix:    appendix,
	}
}

// Name is the configured source name.
func (b *Base) Name() string {
	return b.name
}

func (b *Base) Config() config.RepositoryConfig {
	return b.cfg
}

// AccessToken returns the token, prefixed with "Bearer " when withPrefix is set.
func (b *Base) AccessToken(withPrefix bool) string {
	if withPrefix {
		return AccessTokenPrefix + b.accessToken
	}
	return b.accessToken
}

func (b *Base) SetAccessToken(token string) {
	b.accessToken = token
}

func (b *Base) HasAccessToken() bool {
	return b.accessToken != ""
}

// SetHTTPClient replaces the client used for API calls and downloads.
func (b *Base) SetHTTPClient(client *http.Client) {
	b.client = client
}

// HTTPClient returns the client for API calls. With an access token set,
// every request is authorized through a static oauth2 token source.
func (b *Base) HTTPClient() *http.Client {
	if !b.HasAccessToken() {
		return b.client
	}
	c := *b.client
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: b.accessToken, TokenType: "Bearer"}),
		Base:   base,
	}
	return &c
}

// DownloadRelease stores url at dest. The token goes into an explicit
// Authorization header so redirects to other hosts do not carry it.
func (b *Base) DownloadRelease(ctx context.Context, url, dest string) error {
	headers := map[string]string{}
	if b.HasAccessToken() {
		headers["Authorization"] = b.AccessToken(true)
	}
	Logger.Debug("downloading release", "source", b.name, "url", url, "dest", dest)
	return files.DownloadWith(ctx, b.client, url, dest, files.DownloadOptions{Headers: headers})
}

// Prepend and Append are the parts of pkg_filename_format around the version.
func (b *Base) Prepend() string {
	return b.prepend
}

func (b *Base) Append() string {
	return b.appendix
}

// Decorate wraps version with the configured prepend and append strings.
func (b *Base) Decorate(version string) string {
	return b.prepend + version + b.appendix
}

// DownloadPath is where archives and extracted releases are kept.
func (b *Base) DownloadPath() string {
	if b.cfg.DownloadPath != "" {
		return b.cfg.DownloadPath
	}
	return files.GetDefaultDownloadPath()
}

var pathUnsafe = strings.NewReplacer("/", "-", "\\", "-", ":", "-")

// StoragePath is the directory a version gets extracted to.
func (b *Base) StoragePath(version string) string {
	return filepath.Join(b.DownloadPath(), pathUnsafe.Replace(version))
}

// ArchivePath is the file the zip of a version is downloaded to.
func (b *Base) ArchivePath(version string) string {
	return filepath.Join(b.DownloadPath(), pathUnsafe.Replace(b.Decorate(version))+".zip")
}

// IsSourceAlreadyFetched reports whether version has been extracted already.
func (b *Base) IsSourceAlreadyFetched(version string) bool {
	return files.DirHasEntries(b.StoragePath(version))
}

// FindRelease returns the release with the given version.
func FindRelease(releases []Release, version string) (Release, bool) {
	for _, r := range releases {
		if r.Version == version {
			return r, true
		}
	}
	return Release{}, false
}
