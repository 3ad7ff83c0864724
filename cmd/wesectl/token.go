package main

import (
	"fmt"

	"wesee/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

var tokenOperator string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token",
	RunE: func(_ *cobra.Command, _ []string) error {
		svc := jwt.NewHMACService(loaded.JWT.AdminSecret, loaded.JWT.AdminExpiresIn, loaded.App.AppName)
		tok, err := svc.GenerateAdminToken(tokenOperator)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "Operator name recorded in the token")
	_ = tokenCmd.MarkFlagRequired("operator")
	rootCmd.AddCommand(tokenCmd)
}
