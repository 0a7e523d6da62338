package config

import (
	"net/http"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/gobwas/glob"
)

// DefaultPort Default port.
const DefaultPort = 8080

// DefaultInternalPort Default internal port.
const DefaultInternalPort = 9090

// DefaultServerCompressEnabled Default server compress enabled.
var DefaultServerCompressEnabled = true

// DefaultServerCompressLevel Default server compress level.
const DefaultServerCompressLevel = 5

// DefaultServerCompressTypes Default server compress types.
var DefaultServerCompressTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/x-javascript",
	"application/json",
	"application/atom+xml",
	"application/rss+xml",
	"image/svg+xml",
}

// DefaultServerTimeoutsReadHeaderTimeout Server timeouts ReadHeaderTimeout.
const DefaultServerTimeoutsReadHeaderTimeout = "60s"

// DefaultServerTimeoutsRequestTimeout Overall deadline of a proxied request.
const DefaultServerTimeoutsRequestTimeout = "10m"

// DefaultLogLevel Default log level.
const DefaultLogLevel = "info"

// DefaultLogFormat Default Log format.
const DefaultLogFormat = "json"

// DefaultBucketRegion Default bucket region.
const DefaultBucketRegion = "us-east-1"

// DefaultAccessKeyEnv is the environment variable holding the access key when a bucket declares none.
const DefaultAccessKeyEnv = "AWS_S3_ACCESS_KEY_ID"

// DefaultSecretKeyEnv is the environment variable holding the secret key when a bucket declares none.
const DefaultSecretKeyEnv = "AWS_S3_SECRET_KEY" //nolint: gosec // Variable name only

// DefaultUpstreamTimeout Default upstream timeout.
const DefaultUpstreamTimeout = "30s"

// DefaultUpstreamRetryCount Default upstream retry count for idempotent requests.
const DefaultUpstreamRetryCount = 2

// DefaultUpstreamRetryWaitTime Default upstream first backoff.
const DefaultUpstreamRetryWaitTime = "100ms"

// DefaultUpstreamRetryMaxWaitTime Default upstream backoff cap.
const DefaultUpstreamRetryMaxWaitTime = "2s"

// DefaultTokensQueryParam Default query parameter carrying access tokens.
const DefaultTokensQueryParam = "token"

// DefaultTokensHeader Default header carrying access tokens.
const DefaultTokensHeader = "X-Access-Token"

// DefaultTokensDefaultTTL Default token time to live.
const DefaultTokensDefaultTTL = "15m"

// DefaultTokensMaxTTL Default maximum token time to live.
const DefaultTokensMaxTTL = "168h"

// MinimumTokenSecretLength is the minimum length of the token signing secret.
const MinimumTokenSecretLength = 32

// FreecacheStoreType Freecache store type.
const FreecacheStoreType = "freecache"

// BigcacheStoreType Bigcache store type.
const BigcacheStoreType = "bigcache"

// DefaultCacheStore Default cache store.
const DefaultCacheStore = FreecacheStoreType

// DefaultCacheSize Default cache size.
const DefaultCacheSize = "256MB"

// DefaultCacheMaxEntrySize Default cache max entry size.
const DefaultCacheMaxEntrySize = "256KB"

// DefaultCacheTTL Default cache freshness.
const DefaultCacheTTL = "1m"

// DefaultCacheStaleRetention Default retention of stale entries kept for revalidation.
const DefaultCacheStaleRetention = "10m"

// DefaultCacheFillTimeout Default cache fill timeout.
const DefaultCacheFillTimeout = "30s"

// DefaultTemplateHeaders Default template headers.
var DefaultTemplateHeaders = map[string]string{
	"Content-Type": "{{ template \"main.headers.contentType\" . }}",
}

// TemplateErrLoadingEnvCredentialEmpty Template Error when Loading Environment variable Credentials.
var TemplateErrLoadingEnvCredentialEmpty = "error loading credentials, environment variable %s is empty" //nolint: gosec // No credentials here, false positive

// ErrInvalid is matched by every error returned when a configuration cannot be used.
var ErrInvalid = errors.Sentinel("invalid configuration")

// AllowedMethods are the methods an endpoint can enable.
var AllowedMethods = []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete}

// Config Application Configuration.
type Config struct {
	Log            *LogConfig               `mapstructure:"log"`
	Tracing        *TracingConfig           `mapstructure:"tracing"`
	Server         *ServerConfig            `mapstructure:"server"`
	InternalServer *ServerConfig            `mapstructure:"internalServer"`
	Upstream       *UpstreamConfig          `mapstructure:"upstream"       validate:"required"`
	Tokens         *TokensConfig            `mapstructure:"tokens"`
	Cache          *CacheConfig             `mapstructure:"cache"`
	Templates      *TemplateConfig          `mapstructure:"templates"`
	Buckets        map[string]*BucketConfig `mapstructure:"buckets"        validate:"required,min=1,dive"`
	Endpoints      []*EndpointConfig        `mapstructure:"endpoints"      validate:"required,min=1,dive"`
	Webhooks       []*WebhookConfig         `mapstructure:"webhooks"       validate:"dive"`
}

// TracingConfig represents the Tracing configuration structure.
type TracingConfig struct {
	FixedTags     map[string]interface{} `mapstructure:"fixedTags"`
	FlushInterval string                 `mapstructure:"flushInterval"`
	UDPHost       string                 `mapstructure:"udpHost"`
	QueueSize     int                    `mapstructure:"queueSize"`
	Enabled       bool                   `mapstructure:"enabled"`
	LogSpan       bool                   `mapstructure:"logSpan"`
}

// ServerConfig Server configuration.
type ServerConfig struct {
	Timeouts     *ServerTimeoutsConfig `mapstructure:"timeouts"     validate:"required"`
	CORS         *ServerCorsConfig     `mapstructure:"cors"         validate:"omitempty"`
	CacheHeaders *CacheHeadersConfig   `mapstructure:"cacheHeaders" validate:"omitempty"`
	Compress     *ServerCompressConfig `mapstructure:"compress"     validate:"omitempty"`
	ListenAddr   string                `mapstructure:"listenAddr"`
	Port         int                   `mapstructure:"port"         validate:"required"`
}

// ServerTimeoutsConfig Server timeouts configuration.
type ServerTimeoutsConfig struct {
	ReadTimeout       time.Duration `mapstructure:"readTimeout"       validate:"gte=0"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout" validate:"gte=0"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"      validate:"gte=0"`
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"       validate:"gte=0"`
	// RequestTimeout bounds each request handling, streamed bodies included. Zero disables it.
	RequestTimeout time.Duration `mapstructure:"requestTimeout" validate:"gte=0"`
}

// ServerCompressConfig Server compress configuration.
type ServerCompressConfig struct {
	Enabled *bool    `mapstructure:"enabled"`
	Types   []string `mapstructure:"types"   validate:"required,min=1"`
	Level   int      `mapstructure:"level"   validate:"required,min=1"`
}

// CacheHeadersConfig holds response cache headers set when upstream doesn't provide them.
type CacheHeadersConfig struct {
	Expires       string `mapstructure:"expires"`
	CacheControl  string `mapstructure:"cacheControl"`
	Pragma        string `mapstructure:"pragma"`
	XAccelExpires string `mapstructure:"xAccelExpires"`
}

// ServerCorsConfig Server CORS configuration.
type ServerCorsConfig struct {
	MaxAge             *int     `mapstructure:"maxAge"`
	AllowCredentials   *bool    `mapstructure:"allowCredentials"`
	Debug              *bool    `mapstructure:"debug"`
	OptionsPassthrough *bool    `mapstructure:"optionsPassthrough"`
	AllowOrigins       []string `mapstructure:"allowOrigins"`
	AllowMethods       []string `mapstructure:"allowMethods"`
	AllowHeaders       []string `mapstructure:"allowHeaders"`
	ExposeHeaders      []string `mapstructure:"exposeHeaders"`
	Enabled            bool     `mapstructure:"enabled"`
	AllowAll           bool     `mapstructure:"allowAll"`
}

// UpstreamConfig Object storage client configuration.
type UpstreamConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"          validate:"gt=0"`
	RetryWaitTime    time.Duration `mapstructure:"retryWaitTime"    validate:"gte=0"`
	RetryMaxWaitTime time.Duration `mapstructure:"retryMaxWaitTime" validate:"gtefield=RetryWaitTime"`
	RetryCount       int           `mapstructure:"retryCount"       validate:"gte=0,lte=10"`
}

// TokensConfig Access token configuration.
type TokensConfig struct {
	Secret     *CredentialConfig `mapstructure:"secret"     validate:"required"`
	QueryParam string            `mapstructure:"queryParam" validate:"required"`
	Header     string            `mapstructure:"header"     validate:"required"`
	ClockSkew  time.Duration     `mapstructure:"clockSkew"  validate:"gte=0"`
	DefaultTTL time.Duration     `mapstructure:"defaultTTL" validate:"gt=0"`
	MaxTTL     time.Duration     `mapstructure:"maxTTL"     validate:"gtefield=DefaultTTL"`
}

// CacheConfig Read cache configuration.
type CacheConfig struct {
	Store              string        `mapstructure:"store"          validate:"required,oneof=freecache bigcache"`
	SizeString         string        `mapstructure:"size"           validate:"required"`
	MaxEntrySizeString string        `mapstructure:"maxEntrySize"   validate:"required"`
	TTL                time.Duration `mapstructure:"ttl"            validate:"gt=0"`
	StaleRetention     time.Duration `mapstructure:"staleRetention" validate:"gte=0"`
	FillTimeout        time.Duration `mapstructure:"fillTimeout"    validate:"gt=0"`
	Size               int64
	MaxEntrySize       int64
	Enabled            bool `mapstructure:"enabled"`
}

// TemplateConfigItem Template configuration item.
type TemplateConfigItem struct {
	Headers map[string]string `mapstructure:"headers"`
	Path    string            `mapstructure:"path"`
}

// TemplateConfig Error templates configuration.
// Items without path use the built-in templates.
type TemplateConfig struct {
	NotFoundError       *TemplateConfigItem `mapstructure:"notFoundError"`
	ForbiddenError      *TemplateConfigItem `mapstructure:"forbiddenError"`
	BadRequestError     *TemplateConfigItem `mapstructure:"badRequestError"`
	InternalServerError *TemplateConfigItem `mapstructure:"internalServerError"`
	BadGatewayError     *TemplateConfigItem `mapstructure:"badGatewayError"`
	GatewayTimeoutError *TemplateConfigItem `mapstructure:"gatewayTimeoutError"`
	GenericError        *TemplateConfigItem `mapstructure:"genericError"`
	Helpers             []string            `mapstructure:"helpers"             validate:"dive,required"`
}

// BucketConfig Bucket configuration.
type BucketConfig struct {
	Credentials      *BucketCredentialConfig `mapstructure:"credentials"      validate:"omitempty"`
	Ref              string
	Name             string `mapstructure:"name"             validate:"required"`
	Region           string `mapstructure:"region"`
	S3Endpoint       string `mapstructure:"s3Endpoint"       validate:"omitempty,url"`
	DisableSSL       bool   `mapstructure:"disableSSL"`
	VirtualHostStyle bool   `mapstructure:"virtualHostStyle"`
}

// BucketCredentialConfig Bucket Credentials configurations.
type BucketCredentialConfig struct {
	AccessKey *CredentialConfig `mapstructure:"accessKey" validate:"required"`
	SecretKey *CredentialConfig `mapstructure:"secretKey" validate:"required"`
}

// CredentialConfig Credential Configurations.
// When both env and another source are declared, a non empty environment variable wins.
type CredentialConfig struct {
	Path  string `mapstructure:"path"  validate:"required_without_all=Env Value"`
	Env   string `mapstructure:"env"   validate:"required_without_all=Path Value"`
	Value string `mapstructure:"value" validate:"required_without_all=Path Env"`
}

// EndpointConfig Public endpoint configuration.
type EndpointConfig struct {
	Cache      *EndpointCacheConfig `mapstructure:"cache"`
	Path       string               `mapstructure:"path"       validate:"required"`
	BucketPath string               `mapstructure:"bucketPath"`
	Bucket     string               `mapstructure:"bucket"     validate:"required"`
	Methods    []string             `mapstructure:"methods"    validate:"dive,oneof=GET HEAD PUT DELETE"`
	Protected  bool                 `mapstructure:"protected"`
}

// EndpointCacheConfig Endpoint cache configuration.
type EndpointCacheConfig struct {
	ExcludePatterns []string `mapstructure:"excludePatterns" validate:"dive,required"`
	ExcludeGlobs    []glob.Glob
	Disabled        bool `mapstructure:"disabled"`
}

// WebhookConfig Webhook configuration.
type WebhookConfig struct {
	Headers         map[string]string            `mapstructure:"headers"`
	Name            string                       `mapstructure:"name"`
	SecretHeaders   map[string]*CredentialConfig `mapstructure:"secretHeaders"   validate:"omitempty,dive"`
	Method          string                       `mapstructure:"method"          validate:"required,oneof=POST PATCH PUT DELETE"`
	URL             string                       `mapstructure:"url"             validate:"required,url"`
	MaxWaitTime     string                       `mapstructure:"maxWaitTime"`
	DefaultWaitTime string                       `mapstructure:"defaultWaitTime"`
	Actions         []string                     `mapstructure:"actions"         validate:"dive,oneof=PUT DELETE"`
	RetryCount      int                          `mapstructure:"retryCount"      validate:"gte=0"`
}

// LogConfig Log configuration.
type LogConfig struct {
	Level    string `mapstructure:"level"    validate:"required"`
	Format   string `mapstructure:"format"   validate:"required"`
	FilePath string `mapstructure:"filePath"`
}

// AllowsMethod returns true when the endpoint accepts the HTTP method.
func (ecfg *EndpointConfig) AllowsMethod(method string) bool {
	for _, m := range ecfg.Methods {
		if m == method {
			return true
		}
	}

	return false
}

// IsCacheExcluded returns true when the object key must never be cached for this endpoint.
func (ecfg *EndpointConfig) IsCacheExcluded(key string) bool {
	// Check if cache is disabled
	if ecfg.Cache == nil {
		return false
	}

	if ecfg.Cache.Disabled {
		return true
	}

	// Loop over patterns
	for _, g := range ecfg.Cache.ExcludeGlobs {
		if g.Match(key) {
			return true
		}
	}

	return false
}

// GetEndpoint returns the S3 endpoint URL, derived from region when not set.
func (bcfg *BucketConfig) GetEndpoint() string {
	// Check if endpoint is set
	if bcfg.S3Endpoint != "" {
		return strings.TrimSuffix(bcfg.S3Endpoint, "/")
	}

	scheme := "https"
	if bcfg.DisableSSL {
		scheme = "http"
	}

	return scheme + "://s3." + bcfg.Region + ".amazonaws.com"
}

// HasWebhookFor returns true when the webhook must be called for the action.
func (wcfg *WebhookConfig) HasWebhookFor(action string) bool {
	// No filter means all actions
	if len(wcfg.Actions) == 0 {
		return true
	}

	for _, a := range wcfg.Actions {
		if a == action {
			return true
		}
	}

	return false
}

type invalidError struct {
	err error
}

func (e *invalidError) Error() string { return "invalid configuration: " + e.err.Error() }

func (e *invalidError) Unwrap() error { return e.err }

func (e *invalidError) Is(target error) bool { return target == ErrInvalid } // nolint: errorlint // Sentinel comparison

func newInvalidError(err error) error {
	return &invalidError{err: err}
}
