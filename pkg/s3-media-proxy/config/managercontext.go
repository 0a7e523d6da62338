package config

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"github.com/spf13/viper"
	"github.com/thoas/go-funk"

	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/utils/generalutils"
)

var validate = validator.New()

type managercontext struct {
	cfg               atomic.Pointer[Config]
	configs           []*viper.Viper
	onChangeHooks     []func()
	logger            log.Logger
	credentialWatcher *fsnotify.Watcher
	reloadMutex       sync.Mutex
}

func (ctx *managercontext) AddOnChangeHook(hook func()) {
	ctx.onChangeHooks = append(ctx.onChangeHooks, hook)
}

func (ctx *managercontext) Load(folder string) error {
	// List files
	files, err := os.ReadDir(folder)
	if err != nil {
		return errors.WithStack(err)
	}

	// Generate viper instances for static configs
	ctx.configs = generateViperInstances(folder, files)

	// Check that at least one file exists
	if len(ctx.configs) == 0 {
		return newInvalidError(errors.Errorf("no configuration file found in %s", folder))
	}

	// Load configuration
	err = ctx.loadConfiguration()
	if err != nil {
		return err
	}

	// Loop over config files
	funk.ForEach(ctx.configs, func(vip *viper.Viper) {
		// Add hooks for on change events
		vip.OnConfigChange(func(_ fsnotify.Event) {
			ctx.logger.Infof("Reload configuration detected for file %s", vip.ConfigFileUsed())
			ctx.reload()
		})
		// Watch for configuration changes
		vip.WatchConfig()
	})

	return nil
}

// reload keeps the previous configuration when the new one is invalid.
func (ctx *managercontext) reload() {
	// Load configuration
	err := ctx.loadConfiguration()
	if err != nil {
		ctx.logger.WithError(err).Error("configuration reload failed, keeping previous configuration")
		// Stop here and do not call hooks => configuration is unstable
		return
	}

	// Call all hooks
	funk.ForEach(ctx.onChangeHooks, func(hook func()) { hook() })
}

func (ctx *managercontext) loadDefaultConfigurationValues(vip *viper.Viper) {
	// Load default configuration
	vip.SetDefault("log.level", DefaultLogLevel)
	vip.SetDefault("log.format", DefaultLogFormat)
	vip.SetDefault("server.port", DefaultPort)
	vip.SetDefault("server.compress.enabled", &DefaultServerCompressEnabled)
	vip.SetDefault("server.compress.level", DefaultServerCompressLevel)
	vip.SetDefault("server.compress.types", DefaultServerCompressTypes)
	vip.SetDefault("server.timeouts.readHeaderTimeout", DefaultServerTimeoutsReadHeaderTimeout)
	vip.SetDefault("server.timeouts.requestTimeout", DefaultServerTimeoutsRequestTimeout)
	vip.SetDefault("internalServer.port", DefaultInternalPort)
	vip.SetDefault("internalServer.compress.enabled", &DefaultServerCompressEnabled)
	vip.SetDefault("internalServer.compress.level", DefaultServerCompressLevel)
	vip.SetDefault("internalServer.compress.types", DefaultServerCompressTypes)
	vip.SetDefault("internalServer.timeouts.readHeaderTimeout", DefaultServerTimeoutsReadHeaderTimeout)
	vip.SetDefault("upstream.timeout", DefaultUpstreamTimeout)
	vip.SetDefault("upstream.retryCount", DefaultUpstreamRetryCount)
	vip.SetDefault("upstream.retryWaitTime", DefaultUpstreamRetryWaitTime)
	vip.SetDefault("upstream.retryMaxWaitTime", DefaultUpstreamRetryMaxWaitTime)
	vip.SetDefault("tokens.queryParam", DefaultTokensQueryParam)
	vip.SetDefault("tokens.header", DefaultTokensHeader)
	vip.SetDefault("tokens.defaultTTL", DefaultTokensDefaultTTL)
	vip.SetDefault("tokens.maxTTL", DefaultTokensMaxTTL)
	vip.SetDefault("cache.store", DefaultCacheStore)
	vip.SetDefault("cache.size", DefaultCacheSize)
	vip.SetDefault("cache.maxEntrySize", DefaultCacheMaxEntrySize)
	vip.SetDefault("cache.ttl", DefaultCacheTTL)
	vip.SetDefault("cache.staleRetention", DefaultCacheStaleRetention)
	vip.SetDefault("cache.fillTimeout", DefaultCacheFillTimeout)
}

func generateViperInstances(folder string, files []os.DirEntry) []*viper.Viper {
	list := make([]*viper.Viper, 0)
	// Loop over static files to create viper instance for them
	funk.ForEach(files, func(file os.DirEntry) {
		filename := file.Name()
		// Create config file name
		cfgFileName := strings.TrimSuffix(filename, path.Ext(filename))
		// Test if config file name is compliant (ignore hidden files like .keep or directory)
		if !strings.HasPrefix(filename, ".") && cfgFileName != "" && !file.IsDir() {
			// Create new viper instance
			vip := viper.New()
			// Set config name
			vip.SetConfigName(cfgFileName)
			// Add configuration path
			vip.AddConfigPath(folder)
			// Append it
			list = append(list, vip)
		}
	})

	return list
}

func (ctx *managercontext) loadConfiguration() error {
	ctx.reloadMutex.Lock()
	defer ctx.reloadMutex.Unlock()

	// Create a viper instance for default value and merging
	globalViper := viper.New()

	// Put default values
	ctx.loadDefaultConfigurationValues(globalViper)

	// Loop over configs
	for _, vip := range ctx.configs {
		err := vip.ReadInConfig()
		if err != nil {
			return newInvalidError(errors.WithStack(err))
		}

		err = globalViper.MergeConfigMap(vip.AllSettings())
		if err != nil {
			return newInvalidError(errors.WithStack(err))
		}
	}

	// Prepare configuration object
	var out Config
	// Quick unmarshal.
	err := globalViper.Unmarshal(&out)
	if err != nil {
		return newInvalidError(errors.WithStack(err))
	}

	// Load default values
	err = loadBusinessDefaultValues(&out)
	if err != nil {
		return newInvalidError(err)
	}

	// Configuration validation
	err = validate.Struct(out)
	if err != nil {
		return newInvalidError(errors.WithStack(err))
	}

	// Load all credentials
	credentials, err := loadAllCredentials(&out)
	if err != nil {
		return newInvalidError(err)
	}

	err = validateBusinessConfig(&out)
	if err != nil {
		return newInvalidError(err)
	}

	// Watch credential files
	err = ctx.watchCredentialFiles(credentials)
	if err != nil {
		return err
	}

	// Swap configuration
	ctx.cfg.Store(&out)

	return nil
}

// watchCredentialFiles replaces the previous watcher by one following the credential files.
func (ctx *managercontext) watchCredentialFiles(credentials []*CredentialConfig) error {
	// Stop previous watcher
	if ctx.credentialWatcher != nil {
		_ = ctx.credentialWatcher.Close()
		ctx.credentialWatcher = nil
	}

	// Get file paths
	paths := make([]string, 0)

	for _, cred := range credentials {
		if cred.Path != "" {
			paths = append(paths, filepath.Clean(cred.Path))
		}
	}

	// Check if there is something to watch
	if len(paths) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}

	// Watch directories to follow symlink swaps (kubernetes secrets)
	dirs := funk.UniqString(funk.Map(paths, filepath.Dir).([]string))
	for _, d := range dirs {
		err = watcher.Add(d)
		if err != nil {
			_ = watcher.Close()

			return errors.WithStack(err)
		}
	}

	// Store real paths
	realPaths := map[string]string{}
	for _, p := range paths {
		realPaths[p], _ = filepath.EvalSymlinks(p)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				// Channel closed
				if !ok {
					return
				}

				// Check if event is about a watched file
				changed := false

				for p, realPath := range realPaths {
					currentPath, _ := filepath.EvalSymlinks(p)
					if (filepath.Clean(event.Name) == p && event.Op&(fsnotify.Write|fsnotify.Create) != 0) ||
						(currentPath != "" && currentPath != realPath) {
						changed = true
					}
				}

				if changed {
					ctx.logger.Infof("Reload credential file detected for path %s", event.Name)
					// Reload in another routine as a successful reload closes this watcher
					go ctx.reload()
				}
			case err, ok := <-watcher.Errors:
				// Channel closed
				if !ok {
					return
				}

				ctx.logger.Errorf("credential watcher error: %v", err)
			}
		}
	}()

	ctx.credentialWatcher = watcher

	return nil
}

// GetConfig allow to get configuration object.
func (ctx *managercontext) GetConfig() *Config {
	return ctx.cfg.Load()
}

func loadAllCredentials(out *Config) ([]*CredentialConfig, error) {
	// Initialize answer
	result := make([]*CredentialConfig, 0)

	// Load credentials for access key and secret key
	for _, item := range out.Buckets {
		// Check if credentials are declared
		if item.Credentials == nil {
			continue
		}

		// Manage access key
		err := loadCredential(item.Credentials.AccessKey)
		if err != nil {
			return nil, err
		}
		// Manage secret key
		err = loadCredential(item.Credentials.SecretKey)
		if err != nil {
			return nil, err
		}
		// Save credential
		result = append(result, item.Credentials.AccessKey, item.Credentials.SecretKey)
	}

	// Load token secret
	if out.Tokens != nil {
		err := loadCredential(out.Tokens.Secret)
		if err != nil {
			return nil, err
		}

		result = append(result, out.Tokens.Secret)
	}

	// Load webhook secret headers
	for _, wbCfg := range out.Webhooks {
		// Loop over the secret header
		for _, secCre := range wbCfg.SecretHeaders {
			err := loadCredential(secCre)
			// Check error
			if err != nil {
				return nil, err
			}

			// Save
			result = append(result, secCre)
		}
	}

	return result, nil
}

func loadCredential(credCfg *CredentialConfig) error {
	// Environment variable takes precedence when set
	if credCfg.Env != "" {
		envValue := os.Getenv(credCfg.Env)
		// Check if value exists
		if envValue != "" {
			credCfg.Value = envValue

			return nil
		}

		// No fallback declared
		if credCfg.Path == "" && credCfg.Value == "" {
			return errors.WithStack(fmt.Errorf(TemplateErrLoadingEnvCredentialEmpty, credCfg.Env))
		}
	}

	if credCfg.Path != "" {
		// Secret file
		databytes, err := os.ReadFile(credCfg.Path)
		if err != nil {
			return errors.WithStack(err)
		}
		// Clean new lines
		credCfg.Value = generalutils.NewLineMatcherRegex.ReplaceAllString(string(databytes), "")
	}

	// Default value
	return nil
}

// loadDefaultCredentialEnv makes bucket credentials read the default environment variables.
// Credentials naming their own environment variable are kept.
func loadDefaultCredentialEnv(item *BucketConfig) {
	// Check credentials
	if item.Credentials == nil {
		item.Credentials = &BucketCredentialConfig{}
	}

	if item.Credentials.AccessKey == nil {
		item.Credentials.AccessKey = &CredentialConfig{}
	}

	if item.Credentials.AccessKey.Env == "" {
		item.Credentials.AccessKey.Env = DefaultAccessKeyEnv
	}

	if item.Credentials.SecretKey == nil {
		item.Credentials.SecretKey = &CredentialConfig{}
	}

	if item.Credentials.SecretKey.Env == "" {
		item.Credentials.SecretKey.Env = DefaultSecretKeyEnv
	}
}

func loadBusinessDefaultValues(out *Config) error {
	// Manage default values for buckets
	for key, item := range out.Buckets {
		// Check nil item
		if item == nil {
			return errors.Errorf("bucket %s is empty", key)
		}

		// Put bucket reference in structure with key as value
		item.Ref = key

		// Manage default configuration for bucket region
		if item.Region == "" {
			item.Region = DefaultBucketRegion
		}

		// Default environment variables take precedence over file values
		if os.Getenv(DefaultAccessKeyEnv) != "" && os.Getenv(DefaultSecretKeyEnv) != "" {
			loadDefaultCredentialEnv(item)
		}
	}

	// Manage default values for endpoints
	for i, item := range out.Endpoints {
		// Check nil item
		if item == nil {
			return errors.Errorf("endpoint %d is empty", i)
		}

		// Bucket keys are lowercased by viper
		item.Bucket = strings.ToLower(item.Bucket)

		// Normalize methods
		item.Methods = funk.Map(item.Methods, strings.ToUpper).([]string)

		// Reads are always allowed
		for _, m := range []string{http.MethodHead, http.MethodGet} {
			if !funk.ContainsString(item.Methods, m) {
				item.Methods = append([]string{m}, item.Methods...)
			}
		}

		// Compile exclude patterns
		if item.Cache != nil {
			item.Cache.ExcludeGlobs = make([]glob.Glob, 0, len(item.Cache.ExcludePatterns))

			for _, p := range item.Cache.ExcludePatterns {
				g, err := glob.Compile(p, '/')
				// Check error
				if err != nil {
					return errors.Wrapf(err, "endpoint %d cache exclude pattern %s", i, p)
				}

				item.Cache.ExcludeGlobs = append(item.Cache.ExcludeGlobs, g)
			}
		}
	}

	// Tokens are only configured when a secret is declared
	if out.Tokens != nil && out.Tokens.Secret == nil {
		out.Tokens = nil
	}

	// Manage cache sizes
	if out.Cache != nil {
		size, err := humanize.ParseBytes(out.Cache.SizeString)
		// Check error
		if err != nil {
			return errors.Wrap(err, "cache size")
		}

		maxEntrySize, err := humanize.ParseBytes(out.Cache.MaxEntrySizeString)
		// Check error
		if err != nil {
			return errors.Wrap(err, "cache max entry size")
		}

		out.Cache.Size = int64(size)
		out.Cache.MaxEntrySize = int64(maxEntrySize)
	}

	// Manage default value for tracing
	if out.Tracing == nil {
		out.Tracing = &TracingConfig{Enabled: false}
	}

	return nil
}
