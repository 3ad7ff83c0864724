package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"wesee/internal/app"
	"wesee/internal/database/migration"
	"wesee/internal/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withContainer(func(ctx context.Context, c *app.Container) error {
			return migrationRunner().Run(ctx, c.DB.SQLDB())
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withContainer(func(ctx context.Context, c *app.Container) error {
			return migrationRunner().Down(ctx, c.DB.SQLDB())
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withContainer(func(ctx context.Context, c *app.Container) error {
			sts, err := migrationRunner().Status(ctx, c.DB.SQLDB())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tAPPLIED\tFILE")
			for _, s := range sts {
				fmt.Fprintf(w, "%d\t%t\t%s\n", s.Version, s.Applied, s.Path)
			}
			return w.Flush()
		})
	},
}

func migrationRunner() migration.Runner {
	return migration.Runner{Log: logger.Named("migration")}
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}
