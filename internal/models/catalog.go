// This file defines the catalog data structures: the sources that own
// repositories, the repositories discovered for a source and the annotated
// release history of each repository.

package models

import (
	"fmt"
	"image"
	"time"
)

// Source names an account or organization that owns repositories.
type Source string

// Release is a raw release record as returned by the hosting API.
type Release struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
}

// VersionInfo pairs one release of a repository with the package manifest
// found at the release's tag.
type VersionInfo struct {
	Package       PackageManifest `json:"package"`
	ReleaseID     int64           `json:"release_id"`
	TagName       string          `json:"tag_name"`
	ReleaseDate   time.Time       `json:"release_date"`
	ChangelogBody string          `json:"changelog_body"`
	ChangelogURL  string          `json:"changelog_url"`
	IsInstalled   bool            `json:"is_installed"`
	IsLatest      bool            `json:"is_latest"`
	IsPrerelease  bool            `json:"is_prerelease"`
	IsDraft       bool            `json:"is_draft"`
}

// RepositoryInfo is one discovered repository together with everything the
// catalog resolved for it. Versions keep the order the API returned them in.
type RepositoryInfo struct {
	Owner           string          `json:"owner"`
	Name            string          `json:"name"`
	CloneURL        string          `json:"clone_url"`
	DefaultBranch   string          `json:"default_branch"`
	Stars           int             `json:"stars"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Manifest        PackageManifest `json:"manifest"`
	IconURL         string          `json:"icon_url"`
	Icon            image.Image     `json:"-"`
	Versions        []VersionInfo   `json:"versions"`
	IsInstalled     bool            `json:"is_installed"`
	UpdateAvailable bool            `json:"update_available"`
}

// HasPackage reports whether the repository published at least one release.
func (r *RepositoryInfo) HasPackage() bool {
	return len(r.Versions) > 0
}

// CurrentVersion picks the version a user should see by default: the
// non-draft release flagged latest, otherwise the first non-draft release.
func (r *RepositoryInfo) CurrentVersion() (*VersionInfo, bool) {
	for i := range r.Versions {
		if r.Versions[i].IsDraft {
			continue
		}
		if r.Versions[i].IsLatest {
			return &r.Versions[i], true
		}
	}
	for i := range r.Versions {
		if !r.Versions[i].IsDraft {
			return &r.Versions[i], true
		}
	}
	return nil, false
}

// DisplayName returns the manifest display name of the current version,
// falling back to the repository name.
func (r *RepositoryInfo) DisplayName() string {
	if v, ok := r.CurrentVersion(); ok && v.Package.DisplayName != "" {
		return v.Package.DisplayName
	}
	return r.Name
}

// ChangelogURL links to the release listing of repositories that have a package.
func (r *RepositoryInfo) ChangelogURL() string {
	if !r.HasPackage() {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s/releases", r.Owner, r.Name)
}

// FindVersion looks up a version by tag or manifest version. An empty want
// selects the current version.
func (r *RepositoryInfo) FindVersion(want string) (*VersionInfo, bool) {
	if want == "" {
		return r.CurrentVersion()
	}
	for i := range r.Versions {
		v := &r.Versions[i]
		if v.TagName == want || v.Package.Version == want || v.TagName == "v"+want {
			return v, true
		}
	}
	return nil, false
}
