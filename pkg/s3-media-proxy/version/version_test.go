//go:build unit

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		metadata string
		want     string
	}{
		{name: "release", version: "1.2.0", metadata: "", want: "1.2.0"},
		{name: "release with metadata", version: "1.2.0", metadata: "rc1", want: "1.2.0-rc1"},
		{name: "local build", version: "", metadata: "unreleased", want: "unreleased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldMetadata := Version, Metadata
			defer func() { Version, Metadata = oldVersion, oldMetadata }()

			Version, Metadata, GitCommit, BuildDate = tt.version, tt.metadata, "abc123", "2024-01-01"

			got := GetVersion()
			assert.Equal(t, tt.want, got.Version)
			assert.Equal(t, "s3-media-proxy version: "+tt.want+" (git commit: abc123) built on 2024-01-01", got.String())
		})
	}
}
