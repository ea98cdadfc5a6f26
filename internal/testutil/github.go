package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// FakeToken is the bearer token the fake GitHub server accepts.
const FakeToken = "test-token"

// FakeRelease is one release served by FakeGitHub. Manifest is the raw
// package.json at the release tag; empty means the file does not exist.
type FakeRelease struct {
	ID         int64
	Tag        string
	Body       string
	Prerelease bool
	Draft      bool
	Manifest   string
}

// FakeRepo is one repository served by FakeGitHub.
type FakeRepo struct {
	Owner         string
	Name          string
	DefaultBranch string
	Stars         int
	Manifest      string
	Releases      []FakeRelease
	LatestID      int64
	Files         map[string][]byte // raw files on the default branch
	Delay         time.Duration     // applied to the release listing
}

// FakeGitHub is an httptest server answering the subset of the GitHub REST
// API and raw file host used by the catalog.
type FakeGitHub struct {
	Server *httptest.Server
	Login  string

	mu     sync.Mutex
	orgs   []string
	repos  map[string][]*FakeRepo
	hits   map[string]int
	agents map[string]bool
}

// NewFakeGitHub starts a fake server for the given authenticated login. It
// is closed when the test ends.
func NewFakeGitHub(t *testing.T, login string) *FakeGitHub {
	t.Helper()
	f := &FakeGitHub{
		Login:  login,
		repos:  make(map[string][]*FakeRepo),
		hits:   make(map[string]int),
		agents: make(map[string]bool),
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Route("/api", func(r chi.Router) {
		r.Use(f.requireToken)
		r.Get("/user", f.handleUser)
		r.Get("/user/orgs", f.handleOrgs)
		r.Get("/user/repos", f.handleUserRepos)
		r.Get("/orgs/{org}/repos", f.handleOrgRepos)
		r.Get("/repos/{owner}/{repo}/releases", f.handleReleases)
		r.Get("/repos/{owner}/{repo}/releases/latest", f.handleLatest)
		r.Get("/repos/{owner}/{repo}/contents/*", f.handleContents)
	})
	r.With(f.requireToken).Get("/raw/{owner}/{repo}/{branch}/*", f.handleRaw)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeGitHub) APIURL() string { return f.Server.URL + "/api/" }
func (f *FakeGitHub) RawURL() string { return f.Server.URL + "/raw/" }

func (f *FakeGitHub) AddOrg(org string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = append(f.orgs, org)
}

func (f *FakeGitHub) AddRepo(repo *FakeRepo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	f.repos[repo.Owner] = append(f.repos[repo.Owner], repo)
}

// Hits returns how many requests were made for the exact URL path.
func (f *FakeGitHub) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// SawUserAgent reports whether any request carried the user agent.
func (f *FakeGitHub) SawUserAgent(ua string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agents[ua]
}

func (f *FakeGitHub) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.agents[r.UserAgent()] = true
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeGitHub) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeGitHub) findRepo(owner, name string) *FakeRepo {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, repo := range f.repos[owner] {
		if repo.Name == name {
			return repo
		}
	}
	return nil
}

func (f *FakeGitHub) handleUser(w http.ResponseWriter, r *http.Request) {
	writeFakeJSON(w, http.StatusOK, map[string]any{"login": f.Login})
}

func (f *FakeGitHub) handleOrgs(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	orgs := make([]map[string]any, 0, len(f.orgs))
	for _, org := range f.orgs {
		orgs = append(orgs, map[string]any{"login": org})
	}
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, orgs)
}

func (f *FakeGitHub) handleUserRepos(w http.ResponseWriter, r *http.Request) {
	f.writeRepos(w, f.Login)
}

func (f *FakeGitHub) handleOrgRepos(w http.ResponseWriter, r *http.Request) {
	org := chi.URLParam(r, "org")
	f.mu.Lock()
	known := false
	for _, o := range f.orgs {
		known = known || o == org
	}
	f.mu.Unlock()
	if !known {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	f.writeRepos(w, org)
}

func (f *FakeGitHub) writeRepos(w http.ResponseWriter, owner string) {
	f.mu.Lock()
	repos := make([]map[string]any, 0, len(f.repos[owner]))
	for _, repo := range f.repos[owner] {
		repos = append(repos, map[string]any{
			"name":             repo.Name,
			"full_name":        repo.Owner + "/" + repo.Name,
			"owner":            map[string]any{"login": repo.Owner},
			"clone_url":        fmt.Sprintf("https://github.com/%s/%s.git", repo.Owner, repo.Name),
			"default_branch":   repo.DefaultBranch,
			"stargazers_count": repo.Stars,
			"updated_at":       "2024-05-01T12:00:00Z",
		})
	}
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, repos)
}

func (f *FakeGitHub) handleReleases(w http.ResponseWriter, r *http.Request) {
	repo := f.findRepo(chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if repo == nil {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if repo.Delay > 0 {
		time.Sleep(repo.Delay)
	}
	releases := make([]map[string]any, 0, len(repo.Releases))
	for _, rel := range repo.Releases {
		releases = append(releases, map[string]any{
			"id":           rel.ID,
			"tag_name":     rel.Tag,
			"body":         rel.Body,
			"html_url":     fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", repo.Owner, repo.Name, rel.Tag),
			"prerelease":   rel.Prerelease,
			"draft":        rel.Draft,
			"published_at": "2024-04-01T10:00:00Z",
		})
	}
	writeFakeJSON(w, http.StatusOK, releases)
}

func (f *FakeGitHub) handleLatest(w http.ResponseWriter, r *http.Request) {
	repo := f.findRepo(chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if repo == nil || repo.LatestID == 0 {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	for _, rel := range repo.Releases {
		if rel.ID == repo.LatestID {
			writeFakeJSON(w, http.StatusOK, map[string]any{"id": rel.ID, "tag_name": rel.Tag})
			return
		}
	}
	writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func (f *FakeGitHub) handleContents(w http.ResponseWriter, r *http.Request) {
	repo := f.findRepo(chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if repo == nil {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	ref := r.URL.Query().Get("ref")
	content := repo.Manifest
	if ref != "" && ref != repo.DefaultBranch {
		content = ""
		for _, rel := range repo.Releases {
			if rel.Tag == ref {
				content = rel.Manifest
			}
		}
	}
	if content == "" {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"name":     chi.URLParam(r, "*"),
		"path":     chi.URLParam(r, "*"),
		"encoding": "base64",
		"content":  base64.StdEncoding.EncodeToString([]byte(content)),
	})
}

func (f *FakeGitHub) handleRaw(w http.ResponseWriter, r *http.Request) {
	repo := f.findRepo(chi.URLParam(r, "owner"), chi.URLParam(r, "repo"))
	if repo == nil || chi.URLParam(r, "branch") != repo.DefaultBranch {
		http.NotFound(w, r)
		return
	}
	data, ok := repo.Files[chi.URLParam(r, "*")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
