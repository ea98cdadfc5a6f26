// Package github reads sources, repositories, manifests and releases from
// the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/vrsandeep/gitpm/internal/metrics"
	"github.com/vrsandeep/gitpm/internal/models"
)

// UserAgent identifies every request made by the client.
const UserAgent = "gitpm/1.0"

const perPage = 100

var ErrMissingToken = errors.New("github: an access token is required")

// Options configures a Client. Empty fields fall back to public GitHub.
type Options struct {
	Token        string
	APIURL       string
	RawURL       string
	ManifestPath string
}

// Client wraps the GitHub API client.
type Client struct {
	client       *gh.Client
	httpClient   *http.Client
	rawURL       string
	manifestPath string

	mu    sync.Mutex
	login string
}

// NewClient creates a client authenticated with a bearer token.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, ErrMissingToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), ts)

	client := gh.NewClient(httpClient)
	client.UserAgent = UserAgent
	if opts.APIURL != "" {
		base, err := url.Parse(withTrailingSlash(opts.APIURL))
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.APIURL, err)
		}
		client.BaseURL = base
	}

	rawURL := opts.RawURL
	if rawURL == "" {
		rawURL = "https://raw.githubusercontent.com/"
	}
	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = "package.json"
	}

	return &Client{
		client:       client,
		httpClient:   httpClient,
		rawURL:       withTrailingSlash(rawURL),
		manifestPath: manifestPath,
	}, nil
}

// HTTPClient returns the authenticated HTTP client, for raw downloads.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Login returns the authenticated user's login. It is cached after the
// first successful lookup.
func (c *Client) Login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.login != "" {
		return c.login, nil
	}
	user, _, err := c.client.Users.Get(ctx, "")
	metrics.ObserveGitHubRequest("user", err)
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	c.login = user.GetLogin()
	return c.login, nil
}

// ListSources returns the authenticated login followed by its organizations
// in API order. Errors are logged and whatever was collected is returned.
func (c *Client) ListSources(ctx context.Context) []models.Source {
	login, err := c.Login(ctx)
	if err != nil {
		log.Printf("Warning: %v", err)
		return []models.Source{}
	}
	sources := []models.Source{models.Source(login)}

	opts := &gh.ListOptions{PerPage: perPage}
	for {
		orgs, resp, err := c.client.Organizations.List(ctx, "", opts)
		metrics.ObserveGitHubRequest("orgs", err)
		if err != nil {
			log.Printf("Warning: failed to list organizations: %v", err)
			return sources
		}
		for _, org := range orgs {
			sources = append(sources, models.Source(org.GetLogin()))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return sources
}

// ListRepositories lists the authenticated user's own repositories when
// source is its login, and the organization's repositories otherwise.
func (c *Client) ListRepositories(ctx context.Context, source models.Source) []*gh.Repository {
	login, err := c.Login(ctx)
	if err != nil {
		log.Printf("Warning: %v", err)
		return nil
	}

	var all []*gh.Repository
	if string(source) == login {
		opts := &gh.RepositoryListOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
		for {
			repos, resp, err := c.client.Repositories.List(ctx, "", opts)
			metrics.ObserveGitHubRequest("repos", err)
			if err != nil {
				log.Printf("Warning: failed to list repositories for %s: %v", source, err)
				return nil
			}
			all = append(all, repos...)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
		}
		return all
	}

	opts := &gh.RepositoryListByOrgOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		repos, resp, err := c.client.Repositories.ListByOrg(ctx, string(source), opts)
		metrics.ObserveGitHubRequest("repos", err)
		if err != nil {
			log.Printf("Warning: failed to list repositories for %s: %v", source, err)
			return nil
		}
		all = append(all, repos...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all
}

// FetchManifest reads the package manifest at ref (the default branch when
// ref is empty). Any failure yields an empty manifest.
func (c *Client) FetchManifest(ctx context.Context, owner, repo, ref string) models.PackageManifest {
	var opts *gh.RepositoryContentGetOptions
	if ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref}
	}
	file, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, c.manifestPath, opts)
	metrics.ObserveGitHubRequest("contents", err)
	if err != nil {
		log.Printf("Warning: no manifest for %s/%s@%s: %v", owner, repo, refName(ref), err)
		return models.EmptyManifest()
	}
	if file == nil {
		log.Printf("Warning: manifest path for %s/%s is a directory", owner, repo)
		return models.EmptyManifest()
	}
	content, err := file.GetContent()
	if err != nil {
		log.Printf("Warning: failed to decode manifest for %s/%s: %v", owner, repo, err)
		return models.EmptyManifest()
	}
	manifest, err := models.ParseManifest([]byte(content))
	if err != nil {
		log.Printf("Warning: invalid manifest in %s/%s@%s: %v", owner, repo, refName(ref), err)
	}
	return manifest
}

// ListReleases returns every release in API order.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) []models.Release {
	var releases []models.Release
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		page, resp, err := c.client.Repositories.ListReleases(ctx, owner, repo, opts)
		metrics.ObserveGitHubRequest("releases", err)
		if err != nil {
			log.Printf("Warning: failed to list releases for %s/%s: %v", owner, repo, err)
			return releases
		}
		for _, r := range page {
			releases = append(releases, convertRelease(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return releases
}

// LatestReleaseID returns the id of the release GitHub designates latest.
func (c *Client) LatestReleaseID(ctx context.Context, owner, repo string) (int64, bool) {
	release, resp, err := c.client.Repositories.GetLatestRelease(ctx, owner, repo)
	metrics.ObserveGitHubRequest("latest_release", err)
	if err != nil {
		if resp == nil || resp.StatusCode != http.StatusNotFound {
			log.Printf("Warning: failed to get latest release for %s/%s: %v", owner, repo, err)
		}
		return 0, false
	}
	return release.GetID(), true
}

// IconURL is the raw file URL of iconPath on branch, or empty when the
// manifest has no icon.
func (c *Client) IconURL(owner, repo, branch, iconPath string) string {
	iconPath = strings.TrimPrefix(iconPath, "/")
	if iconPath == "" {
		return ""
	}
	if branch == "" {
		branch = "main"
	}
	return fmt.Sprintf("%s%s/%s/%s/%s", c.rawURL, owner, repo, branch, iconPath)
}

func convertRelease(r *gh.RepositoryRelease) models.Release {
	return models.Release{
		ID:          r.GetID(),
		TagName:     r.GetTagName(),
		Body:        r.GetBody(),
		HTMLURL:     r.GetHTMLURL(),
		PublishedAt: r.GetPublishedAt().Time,
		Prerelease:  r.GetPrerelease(),
		Draft:       r.GetDraft(),
	}
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

func refName(ref string) string {
	if ref == "" {
		return "default"
	}
	return ref
}
