package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tonisark/ActressManager/app"
	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/importer"
	"github.com/Tonisark/ActressManager/services"
	"github.com/Tonisark/ActressManager/workers"
)

// withApp opens the catalog for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import profiles from a CSV or JSON file",
	}

	var mode string
	csvCmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import a CSV file; headers are matched against the synonym table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importMode, err := services.ParseImportMode(mode)
			if err != nil {
				return err
			}
			return runImport(cmd, args[0], func(ctx context.Context, a *app.App, f *os.File) (*services.ImportReport, error) {
				batch, err := importer.DecodeCSV(f)
				if err != nil {
					return nil, err
				}
				return a.Imports.ImportCSV(ctx, batch, importMode, f.Name())
			})
		},
	}
	csvCmd.Flags().StringVar(&mode, "mode", string(services.ImportModeSkip), "Existing names: skip or update")

	jsonCmd := &cobra.Command{
		Use:   "json <file>",
		Short: "Import a JSON array of profile objects; existing names are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], func(ctx context.Context, a *app.App, f *os.File) (*services.ImportReport, error) {
				batch, err := importer.DecodeJSON(f)
				if err != nil {
					return nil, err
				}
				return a.Imports.ImportJSON(ctx, batch, f.Name())
			})
		},
	}

	cmd.AddCommand(csvCmd, jsonCmd)
	return cmd
}

func runImport(cmd *cobra.Command, path string, apply func(context.Context, *app.App, *os.File) (*services.ImportReport, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		report, err := apply(ctx, a, f)
		if report != nil {
			if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
				return perr
			}
		}
		return err
	})
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export csv|json",
		Short:     "Export every profile",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "json"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var n int
				var err error
				if args[0] == "csv" {
					n, err = a.Profiles.ExportCSV(ctx, w, database.ProfileFilter{})
				} else {
					n, err = a.Profiles.ExportJSON(ctx, w, database.ProfileFilter{})
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d profiles\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newReindexCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the full-text search index from the profile table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if checkOnly {
					drift, err := a.Profiles.CheckIndex(ctx)
					if err != nil {
						return err
					}
					if err := printJSON(cmd.OutOrStdout(), drift); err != nil {
						return err
					}
					if !drift.Clean() {
						return fmt.Errorf("search index is out of sync")
					}
					return nil
				}
				n, err := a.Profiles.RebuildIndex(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d profiles\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report drift between the index and the table")
	return cmd
}

func newBackupCmd() *cobra.Command {
	var noMedia bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a backup archive of the catalog and, unless --no-media, the media folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				record, err := a.Backups.Run(ctx, workers.BackupJob{IncludeMedia: !noMedia})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, %d profiles)\n", record.Filename, record.SizeBytes, record.ProfileCount)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noMedia, "no-media", false, "Only archive the profile data")
	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage API admin accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <username> <password>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				created, err := app.EnsureAdmin(a.Admins, args[0], args[1])
				if err != nil {
					return err
				}
				if !created {
					return fmt.Errorf("admin %q already exists", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}
