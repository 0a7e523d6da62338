package version

import "fmt"

// AppName is the binary name.
const AppName = "s3-media-proxy"

// AppVersion structure for version.
type AppVersion struct {
	Version   string `yaml:"version"`
	GitCommit string `yaml:"gitCommit"`
	BuildDate string `yaml:"buildDate"`
}

var (
	// Version is the current version.
	Version = ""
	// Metadata is an extra.
	Metadata = "unreleased"
	// GitCommit is a git sha1.
	GitCommit = ""
	// BuildDate is the build date.
	BuildDate = ""
)

func buildVersion() string {
	// Check if metadata are not present
	if Metadata == "" {
		return Version
	}

	// Local builds
	if Version == "" {
		return Metadata
	}

	return Version + "-" + Metadata
}

// GetVersion is here to get version of the cli.
func GetVersion() *AppVersion {
	return &AppVersion{
		Version:   buildVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

func (v *AppVersion) String() string {
	return fmt.Sprintf("%s version: %s (git commit: %s) built on %s", AppName, v.Version, v.GitCommit, v.BuildDate)
}
