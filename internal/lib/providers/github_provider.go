package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
)

// BranchVersionLayout formats the commit date used as version in branch mode.
const BranchVersionLayout = "20060102T150405Z"

type GitHubProvider struct {
	*Base
	apiURL string
}

func NewGitHubProvider(name string, cfg config.RepositoryConfig) *GitHubProvider {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultAPIURL
	}
	return &GitHubProvider{
		Base:   NewBase(name, cfg),
		apiURL: strings.TrimRight(apiURL, "/"),
	}
}

func (p *GitHubProvider) Type() string {
	return config.TypeGitHub
}

func (p *GitHubProvider) repoURL() string {
	return p.apiURL + "/repos/" + url.PathEscape(p.cfg.RepositoryVendor) + "/" + url.PathEscape(p.cfg.RepositoryName)
}

type githubRelease struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	ZipballURL  string    `json:"zipball_url"`
	PublishedAt time.Time `json:"published_at"`
}

type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// Releases lists published releases, or the latest commits of the
// configured branch when use_branch is set.
func (p *GitHubProvider) Releases(ctx context.Context) ([]Release, error) {
	if p.cfg.UseBranch != "" {
		return p.branchReleases(ctx)
	}
	return p.tagReleases(ctx)
}

func (p *GitHubProvider) tagReleases(ctx context.Context) ([]Release, error) {
	var items []githubRelease
	if err := p.getJSON(ctx, p.repoURL()+"/releases", &items); err != nil {
		return nil, err
	}

	releases := make([]Release, 0, len(items))
	for _, item := range items {
		if item.Draft || item.TagName == "" {
			continue
		}
		name := item.Name
		if name == "" {
			name = item.TagName
		}
		releases = append(releases, Release{
			Version:     item.TagName,
			Name:        name,
			DownloadURL: item.ZipballURL,
			Notes:       item.Body,
			PublishedAt: item.PublishedAt,
		})
	}
	return releases, nil
}

func (p *GitHubProvider) branchReleases(ctx context.Context) ([]Release, error) {
	query := url.Values{}
	query.Set("sha", p.cfg.UseBranch)

	var commits []githubCommit
	if err := p.getJSON(ctx, p.repoURL()+"/commits?"+query.Encode(), &commits); err != nil {
		return nil, err
	}

	releases := make([]Release, 0, len(commits))
	for _, c := range commits {
		if c.SHA == "" {
			continue
		}
		date := c.Commit.Author.Date.UTC()
		short := c.SHA
		if len(short) > 7 {
			short = short[:7]
		}
		releases = append(releases, Release{
			Version:     date.Format(BranchVersionLayout),
			Name:        p.cfg.UseBranch + "@" + short,
			DownloadURL: p.repoURL() + "/zipball/" + c.SHA,
			Notes:       c.Commit.Message,
			PublishedAt: date,
		})
	}
	return releases, nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", files.UserAgent())

	resp, err := p.HTTPClient().Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s", u)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			Logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrUnexpectedResponse, "github api %s answered %s", u, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(err, "decode %s", u)
	}
	return nil
}

func (p *GitHubProvider) Download(ctx context.Context, release Release, dest string) error {
	if release.DownloadURL == "" {
		return errors.Newf("release %s has no download url", release.Version)
	}
	return p.DownloadRelease(ctx, release.DownloadURL, dest)
}
