package metrics

import "net/http"

// Cache results.
const (
	CacheHit         = "hit"
	CacheMiss        = "miss"
	CacheRevalidated = "revalidated"
	CacheBypass      = "bypass"
)

// Client Client metrics interface.
//
//go:generate mockgen -destination=./mocks/mock_Client.go -package=mocks github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics Client
type Client interface {
	// Will return a middleware to instrument http routers.
	Instrument(serverLabel string) func(next http.Handler) http.Handler
	// Will return a handler to expose metrics over a http server.
	GetExposeHandler() http.Handler
	// Will increase counter of S3 operations done by service.
	IncS3Operations(bucketRef, bucketName, operation string)
	// Will increase counter of cache lookups by result.
	IncCacheResults(bucketRef, result string)
	// Will increase counter of token verifications by result.
	IncTokenVerifications(result string)
	// Will increase counter of issued tokens.
	IncIssuedTokens()
	// Will increase counter of succeed webhooks.
	IncSucceedWebhooks(webhookName, action string)
	// Will increase counter of failed webhooks.
	IncFailedWebhooks(webhookName, action string)
}

// NewClient will generate a new client instance.
func NewClient() Client {
	client := &prometheusClient{}
	// Call register to create all prometheus instances objects
	client.register()

	return client
}
