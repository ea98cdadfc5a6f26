package github

import (
	"context"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"

	"github.com/vrsandeep/gitpm/internal/models"
)

// ReleaseSet is everything needed to build a repository's version list:
// releases in API order, the manifest at each release's tag (same index),
// and the latest release id if GitHub reports one.
type ReleaseSet struct {
	Releases  []models.Release
	Manifests []models.PackageManifest
	LatestID  int64
	HasLatest bool
}

// FetchReleases lists releases and resolves the latest release id
// concurrently, then fetches every release's manifest at its tag
// concurrently.
func (c *Client) FetchReleases(ctx context.Context, owner, repo string) ReleaseSet {
	var set ReleaseSet

	var wg conc.WaitGroup
	wg.Go(func() {
		set.Releases = c.ListReleases(ctx, owner, repo)
	})
	wg.Go(func() {
		set.LatestID, set.HasLatest = c.LatestReleaseID(ctx, owner, repo)
	})
	wg.Wait()

	set.Manifests = iter.Map(set.Releases, func(r *models.Release) models.PackageManifest {
		return c.FetchManifest(ctx, owner, repo, r.TagName)
	})
	return set
}
