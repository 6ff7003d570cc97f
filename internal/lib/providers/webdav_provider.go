package providers

import (
	"context"
	"io"
	"os"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/semver"
	"github.com/studio-b12/gowebdav"
)

var zipContentTypes = []string{"application/zip", "application/x-zip-compressed"}

// WebDAVClient is the part of the gowebdav client the provider uses.
type WebDAVClient interface {
	ReadDir(path string) ([]os.FileInfo, error)
	ReadStream(path string) (io.ReadCloser, error)
}

type WebDAVProvider struct {
	*Base
	client WebDAVClient
}

func NewWebDAVProvider(name string, cfg config.RepositoryConfig) *WebDAVProvider {
	b := NewBase(name, cfg)
	c := gowebdav.NewClient(strings.TrimRight(cfg.RepositoryURL, "/"), cfg.User, cfg.Password)
	c.SetTimeout(defaultTimeout)
	c.SetHeader("User-Agent", files.UserAgent())
	if b.HasAccessToken() && cfg.User == "" {
		c.SetHeader("Authorization", b.AccessToken(true))
	}
	return &WebDAVProvider{Base: b, client: c}
}

// SetClient replaces the WebDAV client.
func (p *WebDAVProvider) SetClient(client WebDAVClient) {
	p.client = client
}

func (p *WebDAVProvider) Type() string {
	return config.TypeWebDAV
}

// Releases lists the zip archives in the root of the share.
// Files whose names do not follow pkg_filename_format are ignored.
func (p *WebDAVProvider) Releases(ctx context.Context) ([]Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := p.client.ReadDir("/")
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", p.cfg.RepositoryURL)
	}

	byVersion := map[string]Release{}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !isZipEntry(entry) {
			continue
		}
		version, ok := p.versionFromFilename(entry.Name())
		if !ok {
			continue
		}
		if _, seen := byVersion[version]; seen {
			continue
		}
		byVersion[version] = Release{
			Version:     version,
			Name:        entry.Name(),
			DownloadURL: strings.TrimRight(p.cfg.RepositoryURL, "/") + "/" + entry.Name(),
			PublishedAt: entry.ModTime().UTC(),
		}
		versions = append(versions, version)
	}

	semver.SortDescending(versions)
	releases := make([]Release, 0, len(versions))
	for _, v := range versions {
		releases = append(releases, byVersion[v])
	}
	return releases, nil
}

func isZipEntry(entry os.FileInfo) bool {
	if typed, ok := entry.(interface{ ContentType() string }); ok {
		if ct := typed.ContentType(); ct != "" {
			for _, zt := range zipContentTypes {
				if strings.HasPrefix(ct, zt) {
					return true
				}
			}
			return false
		}
	}
	return strings.HasSuffix(strings.ToLower(entry.Name()), ".zip")
}

// versionFromFilename strips ".zip" and the configured prepend and append strings.
func (p *WebDAVProvider) versionFromFilename(name string) (string, bool) {
	version, ok := cutSuffixFold(name, ".zip")
	if !ok {
		return "", false
	}
	if version, ok = strings.CutPrefix(version, p.Prepend()); !ok {
		return "", false
	}
	if version, ok = strings.CutSuffix(version, p.Append()); !ok {
		return "", false
	}
	if version == "" {
		return "", false
	}
	return version, true
}

func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) < len(suffix) || !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}

// Download streams the archive of release from the share into dest.
func (p *WebDAVProvider) Download(ctx context.Context, release Release, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := release.Name
	if name == "" {
		name = path.Base(release.DownloadURL)
	}
	if name == "" || name == "." || name == "/" {
		return errors.Newf("release %s has no file name", release.Version)
	}

	Logger.Debug("downloading release", "source", p.name, "file", name, "dest", dest)
	rc, err := p.client.ReadStream("/" + name)
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			Logger.Warn("failed to close webdav stream", "file", name, "error", closeErr)
		}
	}()

	if err := files.WriteStream(dest, rc); err != nil {
		return errors.Wrapf(err, "store %s", name)
	}
	return nil
}
