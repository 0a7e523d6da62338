package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/server"
)

func newTokenCmd(configFolder *string) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage access tokens",
	}

	var (
		resourcePath string
		ttl          time.Duration
	)

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for a public path (a path ending with / grants the whole folder)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfgManager, err := loadConfiguration(*configFolder)
			if err != nil {
				return err
			}

			// Create routes
			routes := server.NewRoutes(cfgManager)
			// Load
			err = routes.Load()
			if err != nil {
				return err
			}

			tok, expiresAt, err := routes.IssueToken(resourcePath, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintln(cmd.ErrOrStderr(), "expires at "+expiresAt.UTC().Format(time.RFC3339))

			return nil
		},
	}

	issueCmd.Flags().StringVar(&resourcePath, "path", "", "Public path granted by the token")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token time to live (default is tokens.defaultTTL)")
	_ = issueCmd.MarkFlagRequired("path")

	tokenCmd.AddCommand(issueCmd)

	return tokenCmd
}
