package server

import (
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/router"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/token"
)

// Routes holds the endpoint table and the token service built from configuration.
// Both servers read the same value, a reload swaps it atomically.
type Routes struct {
	cfgManager config.Manager
	state      atomic.Pointer[routingState]
	clock      func() time.Time
}

type routingState struct {
	table     *router.Table
	tokenSvc  token.Service
	tokensCfg *config.TokensConfig
}

// endpointTarget is carried by router rules.
type endpointTarget struct {
	endpoint *config.EndpointConfig
	bucket   *config.BucketConfig
}

// NewRoutes creates a new routes holder.
func NewRoutes(cfgManager config.Manager) *Routes {
	return &Routes{cfgManager: cfgManager, clock: time.Now}
}

// Load will (re)build the endpoint table and the token service.
// On error, the previous state is kept.
func (r *Routes) Load() error {
	// Get configuration
	cfg := r.cfgManager.GetConfig()

	rules := make([]*router.Rule, 0, len(cfg.Endpoints))
	// Loop over endpoints
	for _, ep := range cfg.Endpoints {
		bcfg, ok := cfg.Buckets[ep.Bucket]
		// Check bucket exists
		if !ok {
			return errors.Errorf("endpoint %s references unknown bucket %s", ep.Path, ep.Bucket)
		}

		rules = append(rules, &router.Rule{
			PublicPrefix: ep.Path,
			BucketPrefix: ep.BucketPath,
			Bucket:       ep.Bucket,
			Data:         &endpointTarget{endpoint: ep, bucket: bcfg},
		})
	}

	st := &routingState{
		table:     router.NewTable(rules),
		tokensCfg: cfg.Tokens,
	}

	// Check if tokens are enabled
	if cfg.Tokens != nil {
		tsvc, err := token.NewService([]byte(cfg.Tokens.Secret.Value), cfg.Tokens.ClockSkew, r.clock)
		// Check error
		if err != nil {
			return err
		}

		st.tokenSvc = tsvc
	}

	// Swap
	r.state.Store(st)

	return nil
}

func (r *Routes) get() *routingState {
	return r.state.Load()
}

// Table returns the current endpoint table.
func (r *Routes) Table() *router.Table {
	return r.get().table
}

// Endpoints returns endpoints in resolution order.
func (r *Routes) Endpoints() []*config.EndpointConfig {
	rules := r.get().table.Rules()
	res := make([]*config.EndpointConfig, 0, len(rules))

	for _, rule := range rules {
		res = append(res, rule.Data.(*endpointTarget).endpoint) // nolint: forcetypeassert // Set by Load
	}

	return res
}

// IssueToken issues a token for a public resource path.
// A zero ttl uses the configured default.
func (r *Routes) IssueToken(resourcePath string, ttl time.Duration) (string, time.Time, error) {
	st := r.get()
	// Check if tokens are enabled
	if st.tokenSvc == nil {
		return "", time.Time{}, errors.WithStack(ErrTokensDisabled)
	}

	// Default ttl
	if ttl == 0 {
		ttl = st.tokensCfg.DefaultTTL
	}

	// Check ttl
	if ttl < 0 || (st.tokensCfg.MaxTTL > 0 && ttl > st.tokensCfg.MaxTTL) {
		return "", time.Time{}, errors.WithStack(ErrInvalidTTL)
	}

	// Check that the path is served by an endpoint
	_, err := st.table.Resolve(resourcePath)
	if err != nil {
		return "", time.Time{}, err
	}

	return st.tokenSvc.Issue(resourcePath, ttl)
}

// ErrTokensDisabled is returned when no token configuration is declared.
var ErrTokensDisabled = errors.Sentinel("tokens aren't configured")

// ErrInvalidTTL is returned when a token ttl is negative or over the maximum.
var ErrInvalidTTL = errors.Sentinel("token ttl is invalid")
