package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/version"
)

// Main package

// ConfigFolderEnv overrides the default configuration folder.
const ConfigFolderEnv = "S3_MEDIA_PROXY_CONFIG"

func defaultConfigFolder() string {
	// Check environment
	if v := os.Getenv(ConfigFolderEnv); v != "" {
		return v
	}

	return "conf/"
}

func newRootCmd() *cobra.Command {
	var configFolder string

	rootCmd := &cobra.Command{
		Use:           version.AppName,
		Short:         "S3 media reverse proxy",
		Long:          "Reverse proxy for S3 compatible buckets with read cache and signed access tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return startServer(configFolder)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of " + version.AppName,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion().String())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newTokenCmd(&configFolder))
	rootCmd.AddCommand(newConfigCmd(&configFolder))
	rootCmd.PersistentFlags().StringVar(
		&configFolder,
		"config",
		defaultConfigFolder(),
		"Config folder (default is "+ConfigFolderEnv+" or <Current Working Directory>/conf/)",
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
