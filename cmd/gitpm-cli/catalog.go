package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/gitpm/internal/core"
	"github.com/vrsandeep/gitpm/internal/models"
)

var showInvalid bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the accounts and organizations you can browse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			if app.Catalog() == nil {
				return errCatalogUnavailable
			}
			for _, source := range app.Catalog().LoadSources(ctx) {
				fmt.Println(source)
			}
			return nil
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [source]",
	Short: "List the repositories of a source and their current release",
	Long: `List the repositories of a source. Without a source, the
authenticated account is used. Repositories without a package release are
hidden unless --all is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := ""
		if len(args) == 1 {
			source = args[0]
		}
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			cat, err := loadCatalog(ctx, app, source)
			if err != nil {
				return err
			}
			printRepositories(cat.Repositories(), showInvalid)
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <source> <repository>",
	Short: "Show every release of a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			cat, err := loadCatalog(ctx, app, args[0])
			if err != nil {
				return err
			}
			repo, ok := cat.Repository(args[1])
			if !ok {
				return fmt.Errorf("repository %s not found in %s", args[1], args[0])
			}
			printRepository(repo)
			return nil
		})
	},
}

func init() {
	catalogCmd.Flags().BoolVarP(&showInvalid, "all", "a", false, "Include repositories without a package")
	rootCmd.AddCommand(sourcesCmd, catalogCmd, showCmd)
}

func printRepositories(repos []models.RepositoryInfo, all bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REPOSITORY\tNAME\tCURRENT\tSTARS\tSTATUS")
	for _, repo := range repos {
		if !all && !repo.HasPackage() {
			continue
		}
		current := "-"
		if v, ok := repo.CurrentVersion(); ok {
			current = v.TagName
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", repo.Name, repo.DisplayName(), current, repo.Stars, status(repo))
	}
	w.Flush()
}

func printRepository(repo models.RepositoryInfo) {
	fmt.Printf("%s (%s/%s)\n", repo.DisplayName(), repo.Owner, repo.Name)
	fmt.Printf("Clone URL:  %s\n", repo.CloneURL)
	if url := repo.ChangelogURL(); url != "" {
		fmt.Printf("Changelog:  %s\n", url)
	}
	fmt.Printf("Status:     %s\n", status(repo))
	if !repo.HasPackage() {
		return
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tPACKAGE\tVERSION\tRELEASED\tFLAGS")
	for _, v := range repo.Versions {
		flags := ""
		for _, f := range []struct {
			on   bool
			name string
		}{{v.IsLatest, "latest"}, {v.IsInstalled, "installed"}, {v.IsPrerelease, "prerelease"}, {v.IsDraft, "draft"}} {
			if f.on {
				flags += f.name + " "
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.TagName, v.Package.Name, v.Package.Version, v.ReleaseDate.Format("2006-01-02"), flags)
	}
	w.Flush()
}

func status(repo models.RepositoryInfo) string {
	switch {
	case repo.UpdateAvailable:
		return "update available"
	case repo.IsInstalled:
		return "installed"
	case !repo.HasPackage():
		return "no package"
	default:
		return "available"
	}
}
