package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/gitpm/internal/core"
)

var (
	releaseVersion string
	operationLimit int
)

var installedCmd = &cobra.Command{
	Use:     "installed",
	Aliases: []string{"ls"},
	Short:   "List installed packages",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tSOURCE\tREFERENCE")
			for _, r := range app.Index().Records() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Version, r.Source, r.ID)
			}
			return w.Flush()
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <source> <repository>",
	Short: "Install a package release and its dependencies",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			cat, err := loadCatalog(ctx, app, args[0])
			if err != nil {
				return err
			}
			repo, v, err := lookupVersion(cat, args[1], releaseVersion)
			if err != nil {
				return err
			}
			if err := app.Installer().Import(ctx, repo.CloneURL, v.Package); err != nil {
				return err
			}
			fmt.Printf("Installed %s %s\n", v.Package.Name, v.Package.Version)
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <source> <repository>",
	Short: "Replace an installed package with another release",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			cat, err := loadCatalog(ctx, app, args[0])
			if err != nil {
				return err
			}
			repo, v, err := lookupVersion(cat, args[1], releaseVersion)
			if err != nil {
				return err
			}
			if err := app.Installer().Update(ctx, v.Package.Name, repo.CloneURL, v.Package); err != nil {
				return err
			}
			fmt.Printf("Updated %s to %s\n", v.Package.Name, v.Package.Version)
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <package>",
	Aliases: []string{"rm"},
	Short:   "Uninstall a package",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			if err := app.Installer().Remove(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		})
	},
}

var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "Show the install history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *core.App) error {
			ops, err := app.Store().ListOperations(operationLimit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tTARGET\tSTATUS\tREFERENCES\tMESSAGE")
			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					op.CreatedAt.Local().Format("2006-01-02 15:04:05"), op.Kind, op.Target, op.Status,
					strings.Join(op.References, " "), op.Message)
			}
			return w.Flush()
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{importCmd, updateCmd} {
		cmd.Flags().StringVarP(&releaseVersion, "release", "r", "", "Release tag or package version (default: current release)")
	}
	operationsCmd.Flags().IntVarP(&operationLimit, "limit", "n", 20, "Number of operations to show")
	rootCmd.AddCommand(installedCmd, importCmd, updateCmd, removeCmd, operationsCmd)
}
