package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"wesee/internal/app"
	"wesee/internal/usecase"

	"github.com/spf13/cobra"
)

var scraperCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Manage the LinkedIn accounts used for scraping",
}

var (
	scraperName     string
	scraperEmail    string
	scraperPassword string
)

var scraperAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a scraper account",
	RunE: func(_ *cobra.Command, _ []string) error {
		password := scraperPassword
		if password == "" {
			password = os.Getenv("WESEE_SCRAPER_PASSWORD")
		}
		return withContainer(func(ctx context.Context, c *app.Container) error {
			acc, err := c.Credentials.Add(ctx, usecase.AddScraperRequest{
				Name:     scraperName,
				Email:    scraperEmail,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Printf("added scraper %d (%s)\n", acc.ID, acc.Email)
			return nil
		})
	},
}

var scraperListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scraper accounts",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withContainer(func(ctx context.Context, c *app.Container) error {
			accounts, err := c.Credentials.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
			for _, a := range accounts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.Name, a.Email, a.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		})
	},
}

var scraperRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a scraper account",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		return withContainer(func(ctx context.Context, c *app.Container) error {
			if err := c.Credentials.Remove(ctx, id); err != nil {
				return err
			}
			fmt.Printf("removed scraper %d\n", id)
			return nil
		})
	},
}

func init() {
	scraperAddCmd.Flags().StringVar(&scraperName, "name", "", "Display name (defaults to the email)")
	scraperAddCmd.Flags().StringVar(&scraperEmail, "email", "", "LinkedIn login email")
	scraperAddCmd.Flags().StringVar(&scraperPassword, "password", "", "LinkedIn password (or WESEE_SCRAPER_PASSWORD)")
	_ = scraperAddCmd.MarkFlagRequired("email")

	scraperCmd.AddCommand(scraperAddCmd, scraperListCmd, scraperRemoveCmd)
	rootCmd.AddCommand(scraperCmd)
}
