package main

import (
	"context"
	"fmt"
	"os"

	"wesee/internal/app"
	"wesee/internal/database/seeder"
	"wesee/internal/usecase"

	"github.com/spf13/cobra"
)

var seedWithProfiles bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample profiles and bootstrap scraper accounts",
	Long: "Registers the scraper account named by WESEE_SEED_SCRAPER_EMAIL / WESEE_SEED_SCRAPER_PASSWORD " +
		"(if set) and, with --profiles, stores the bundled sample profile documents.",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withContainer(func(ctx context.Context, c *app.Container) error {
			var seeders []seeder.Seeder
			if email := os.Getenv("WESEE_SEED_SCRAPER_EMAIL"); email != "" {
				seeders = append(seeders, seeder.ScraperSeeder{
					Credentials: c.Credentials,
					Accounts: []usecase.AddScraperRequest{{
						Email:    email,
						Password: os.Getenv("WESEE_SEED_SCRAPER_PASSWORD"),
					}},
				})
			}
			if seedWithProfiles {
				seeders = append(seeders, seeder.ProfileSeeder{Profiles: c.ProfileCodec, Files: seeder.Fixtures()})
			}
			if len(seeders) == 0 {
				fmt.Println("nothing to seed")
				return nil
			}
			if err := (seeder.Runner{Seeders: seeders}).Run(ctx); err != nil {
				return err
			}
			fmt.Printf("ran %d seeders\n", len(seeders))
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedWithProfiles, "profiles", false, "Store the bundled sample profiles")
	rootCmd.AddCommand(seedCmd)
}
