package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/gitpm/internal/catalog"
	"github.com/vrsandeep/gitpm/internal/core"
	"github.com/vrsandeep/gitpm/internal/models"
)

var Version = "dev"

var errCatalogUnavailable = errors.New("catalog unavailable: GitHub credentials were not found")

var (
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "gitpm-cli",
	Short: "Browse and install packages published as GitHub releases",
	Long: `gitpm-cli lists the repositories of a GitHub account or organization,
shows which releases carry a package manifest and installs, updates or
removes those packages locally.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log with timestamps and file names")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Give up after this long")
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *core.App) error) error {
	app, err := core.New(Version)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, app)
}

// loadCatalog selects source and blocks until its repositories are resolved.
func loadCatalog(ctx context.Context, app *core.App, source string) (*catalog.Catalog, error) {
	cat := app.Catalog()
	if cat == nil {
		return nil, errCatalogUnavailable
	}
	if source == "" {
		sources := cat.LoadSources(ctx)
		if len(sources) == 0 {
			return nil, errors.New("no sources available for this account")
		}
		source = string(sources[0])
	}
	cat.Select(ctx, models.Source(source))
	if err := cat.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog sync for %s did not finish: %w", source, err)
	}
	return cat, nil
}

// lookupVersion resolves repo@version in a loaded catalog.
func lookupVersion(cat *catalog.Catalog, repoName, version string) (models.RepositoryInfo, models.VersionInfo, error) {
	repo, ok := cat.Repository(repoName)
	if !ok {
		return models.RepositoryInfo{}, models.VersionInfo{}, fmt.Errorf("repository %s not found in %s", repoName, cat.SelectedSource())
	}
	v, ok := repo.FindVersion(version)
	if !ok {
		if version == "" {
			return repo, models.VersionInfo{}, fmt.Errorf("%s has no package release", repoName)
		}
		return repo, models.VersionInfo{}, fmt.Errorf("%s has no release %s", repoName, version)
	}
	return repo, *v, nil
}
