package config

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
	"github.com/thoas/go-funk"
)

func validateBusinessConfig(out *Config) error {
	// Store normalized endpoint paths to detect duplicates
	seenPaths := map[string]int{}

	// Validate endpoints
	for i, endpoint := range out.Endpoints {
		beginErrorMessage := fmt.Sprintf("endpoint %d", i)

		// Check path value
		err := validatePath(beginErrorMessage+" path", endpoint.Path)
		if err != nil {
			return err
		}

		// Check bucket path value
		if endpoint.BucketPath != "" {
			err = validatePath(beginErrorMessage+" bucket path", endpoint.BucketPath)
			if err != nil {
				return err
			}
		}

		// Check duplicates
		normalized := strings.TrimSuffix(endpoint.Path, "/") + "/"
		if j, ok := seenPaths[normalized]; ok {
			return errors.Errorf("%s has the same path as endpoint %d", beginErrorMessage, j)
		}

		seenPaths[normalized] = i

		// Check bucket reference
		if _, ok := out.Buckets[endpoint.Bucket]; !ok {
			return errors.Errorf("%s references bucket %s which isn't declared", beginErrorMessage, endpoint.Bucket)
		}

		// Check protected endpoints have a token configuration
		if endpoint.Protected && out.Tokens == nil {
			return errors.New(beginErrorMessage + " is protected but tokens configuration with secret is missing")
		}

		// Check methods
		filtered := funk.FilterString(endpoint.Methods, func(s string) bool {
			return !funk.ContainsString(AllowedMethods, s)
		})
		if len(filtered) > 0 {
			return errors.New(beginErrorMessage + " must have HTTP methods in GET, HEAD, PUT or DELETE")
		}
	}

	// Validate token secret
	if out.Tokens != nil && len(out.Tokens.Secret.Value) < MinimumTokenSecretLength {
		return errors.Errorf("tokens secret must be at least %d bytes long", MinimumTokenSecretLength)
	}

	// Validate bucket credentials
	for key, bucket := range out.Buckets {
		if bucket.Credentials != nil &&
			(bucket.Credentials.AccessKey.Value == "" || bucket.Credentials.SecretKey.Value == "") {
			return errors.Errorf("bucket %s credentials are declared but empty", key)
		}
	}

	// Validate cache sizes
	if out.Cache != nil && out.Cache.Enabled {
		if out.Cache.Size <= 0 {
			return errors.New("cache size must be positive")
		}

		if out.Cache.MaxEntrySize <= 0 || out.Cache.MaxEntrySize > out.Cache.Size {
			return errors.New("cache max entry size must be positive and lower than cache size")
		}
	}

	return nil
}

func validatePath(beginErrorMessage string, fpath string) error {
	// Check that path begins with /
	if !strings.HasPrefix(fpath, "/") {
		return errors.New(beginErrorMessage + " must starts with /")
	}

	// Check path segments
	for _, s := range strings.Split(strings.Trim(fpath, "/"), "/") {
		if s == "." || s == ".." {
			return errors.New(beginErrorMessage + " must not contain relative segments")
		}
	}

	// Return no error
	return nil
}
