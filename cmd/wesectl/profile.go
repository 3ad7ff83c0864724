package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wesee/internal/app"
	"wesee/internal/domain/profile"
	"wesee/internal/usecase"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and maintain stored profiles",
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Store a profile document read from a JSON file or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		raw, err := readInput(args[0])
		if err != nil {
			return err
		}
		doc, err := usecase.DecodeProfile(raw)
		if err != nil {
			return err
		}
		doc.LinkedInURL = profile.NormalizeURL(doc.LinkedInURL)

		return withContainer(func(ctx context.Context, c *app.Container) error {
			id, err := c.ProfileCodec.Upsert(ctx, doc)
			if err != nil {
				return err
			}
			fmt.Printf("stored profile %d for %s\n", id, doc.LinkedInURL)
			return nil
		})
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <linkedin-url>",
	Short: "Print a stored profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *app.Container) error {
			doc, err := c.ProfileCodec.Fetch(ctx, profile.NormalizeURL(args[0]))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		})
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <linkedin-url>",
	Short: "Delete a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		url := profile.NormalizeURL(args[0])
		return withContainer(func(ctx context.Context, c *app.Container) error {
			if err := c.ProfileCodec.Delete(ctx, url); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", url)
			return nil
		})
	},
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func init() {
	profileCmd.AddCommand(profileImportCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
