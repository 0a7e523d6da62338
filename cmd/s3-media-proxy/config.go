package main

import (
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/server"
)

const redacted = "REDACTED"

type checkedEndpoint struct {
	Path       string   `yaml:"path"`
	BucketPath string   `yaml:"bucketPath"`
	Bucket     string   `yaml:"bucket"`
	Methods    []string `yaml:"methods"`
	Protected  bool     `yaml:"protected"`
	NoCache    bool     `yaml:"noCache,omitempty"`
}

type checkedBucket struct {
	Ref       string `yaml:"ref"`
	Name      string `yaml:"name"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
}

type checkedConfig struct {
	Endpoints []*checkedEndpoint `yaml:"endpoints"`
	Buckets   []*checkedBucket   `yaml:"buckets"`
}

func newConfigCmd(configFolder *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print endpoints in resolution order",
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

			return printConfiguration(cmd.OutOrStdout(), cfgManager.GetConfig(), routes.Endpoints())
		},
	}

	configCmd.AddCommand(checkCmd)

	return configCmd
}

func printConfiguration(w io.Writer, cfg *config.Config, endpoints []*config.EndpointConfig) error {
	out := &checkedConfig{}

	for _, ep := range endpoints {
		out.Endpoints = append(out.Endpoints, &checkedEndpoint{
			Path:       ep.Path,
			BucketPath: ep.BucketPath,
			Bucket:     ep.Bucket,
			Methods:    ep.Methods,
			Protected:  ep.Protected,
			NoCache:    ep.Cache != nil && ep.Cache.Disabled,
		})
	}

	for ref, b := range cfg.Buckets {
		cb := &checkedBucket{
			Ref:      ref,
			Name:     b.Name,
			Region:   b.Region,
			Endpoint: b.GetEndpoint(),
		}
		// Never print credentials
		if b.Credentials != nil {
			cb.AccessKey = redacted
			cb.SecretKey = redacted
		}

		out.Buckets = append(out.Buckets, cb)
	}

	// Stable output
	sort.Slice(out.Buckets, func(i, j int) bool { return out.Buckets[i].Ref < out.Buckets[j].Ref })

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) // nolint: gomnd // Indent

	err := enc.Encode(out)
	if err != nil {
		return err
	}

	return enc.Close()
}
