package catalog

import "github.com/vrsandeep/gitpm/internal/models"

// InstalledChecker answers whether a package version is installed.
type InstalledChecker interface {
	Exists(bundle, version string) bool
}

// ReconcileVersions builds one VersionInfo per release, in API order.
// manifests[i] is the manifest at releases[i]'s tag; missing entries count
// as empty manifests. Exactly the release whose id equals latestID is
// flagged latest when hasLatest is set.
func ReconcileVersions(releases []models.Release, manifests []models.PackageManifest, latestID int64, hasLatest bool, index InstalledChecker) []models.VersionInfo {
	versions := make([]models.VersionInfo, 0, len(releases))
	for i, rel := range releases {
		manifest := models.EmptyManifest()
		if i < len(manifests) {
			manifest = manifests[i]
		}

		installed := false
		if index != nil && manifest.Name != "" {
			installed = index.Exists(manifest.Name, manifest.Version)
		}

		versions = append(versions, models.VersionInfo{
			Package:       manifest,
			ReleaseID:     rel.ID,
			TagName:       rel.TagName,
			ReleaseDate:   rel.PublishedAt,
			ChangelogBody: rel.Body,
			ChangelogURL:  rel.HTMLURL,
			IsInstalled:   installed,
			IsLatest:      hasLatest && rel.ID == latestID,
			IsPrerelease:  rel.Prerelease,
			IsDraft:       rel.Draft,
		})
	}
	return versions
}
