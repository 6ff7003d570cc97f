package providers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/semver"
	"golang.org/x/net/html"
)

var looseVersionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// HTTPProvider scrapes a download page for links to release archives.
type HTTPProvider struct {
	*Base
	pattern *regexp.Regexp
}

func NewHTTPProvider(name string, cfg config.RepositoryConfig) *HTTPProvider {
	b := NewBase(name, cfg)
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(b.Prepend()) + `(\d+\.\d+\.\d+)` + regexp.QuoteMeta(b.Append()) + `\.zip$`)
	return &HTTPProvider{Base: b, pattern: pattern}
}

func (p *HTTPProvider) Type() string {
	return config.TypeHTTP
}

// Releases reads the page at repository_url and returns every linked archive
// whose file name follows pkg_filename_format. Without any such link, zip
// links that contain a version number anywhere in their name are used.
func (p *HTTPProvider) Releases(ctx context.Context) ([]Release, error) {
	if p.cfg.RepositoryURL == "" {
		return nil, errors.New("no repository_url configured")
	}
	base, err := url.Parse(p.cfg.RepositoryURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse repository_url %q", p.cfg.RepositoryURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.RepositoryURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", files.UserAgent())

	resp, err := p.HTTPClient().Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s", p.cfg.RepositoryURL)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			Logger.Warn("failed to close response body", "error", closeErr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUnexpectedResponse, "%s answered %s", p.cfg.RepositoryURL, resp.Status)
	}

	links, err := extractLinks(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", p.cfg.RepositoryURL)
	}

	releases := p.matchLinks(base, links, func(name string) string {
		if m := p.pattern.FindStringSubmatch(name); m != nil {
			return m[1]
		}
		return ""
	})
	if len(releases) == 0 {
		releases = p.matchLinks(base, links, func(name string) string {
			if !strings.HasSuffix(strings.ToLower(name), ".zip") {
				return ""
			}
			return looseVersionPattern.FindString(name)
		})
	}
	return releases, nil
}

func (p *HTTPProvider) matchLinks(base *url.URL, links []string, versionOf func(name string) string) []Release {
	byVersion := map[string]Release{}
	var versions []string
	for _, link := range links {
		ref, err := url.Parse(link)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		name := path.Base(abs.Path)
		version := versionOf(name)
		if version == "" {
			continue
		}
		if _, seen := byVersion[version]; seen {
			continue
		}
		byVersion[version] = Release{
			Version:     version,
			Name:        name,
			DownloadURL: abs.String(),
		}
		versions = append(versions, version)
	}

	semver.SortDescending(versions)
	releases := make([]Release, 0, len(versions))
	for _, v := range versions {
		releases = append(releases, byVersion[v])
	}
	return releases
}

// extractLinks returns the href of every anchor in an HTML document.
func extractLinks(r io.Reader) ([]string, error) {
	var links []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return links, nil
			}
			return links, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			if t.Data != "a" {
				continue
			}
			for _, attr := range t.Attr {
				if attr.Key == "href" && attr.Val != "" {
					links = append(links, attr.Val)
				}
			}
		}
	}
}

func (p *HTTPProvider) Download(ctx context.Context, release Release, dest string) error {
	if release.DownloadURL == "" {
		return errors.Newf("release %s has no download url", release.Version)
	}
	return p.DownloadRelease(ctx, release.DownloadURL, dest)
}
