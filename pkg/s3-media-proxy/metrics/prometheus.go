package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusClient struct {
	reqCnt                *prometheus.CounterVec
	resSz                 *prometheus.SummaryVec
	reqDur                *prometheus.SummaryVec
	reqSz                 *prometheus.SummaryVec
	up                    *prometheus.GaugeVec
	s3OperationsTotal     *prometheus.CounterVec
	cacheResultsTotal     *prometheus.CounterVec
	tokenVerificationsCnt *prometheus.CounterVec
	issuedTokensTotal     prometheus.Counter
	succeedWebhooks       *prometheus.CounterVec
	failedWebhooks        *prometheus.CounterVec
}

// Instrument will instrument chi routes.
func (cl *prometheusClient) Instrument(serverLabel string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Begin timer
			start := time.Now()
			// Calculate request size
			reqSz := computeApproximateRequestSize(r)

			// Next request with new response writer
			sw := statusWriter{ResponseWriter: w}
			next.ServeHTTP(&sw, r)

			// Get status as string
			status := strconv.Itoa(sw.status)
			// Calculate request time
			elapsed := float64(time.Since(start)) / float64(time.Second)
			// Get response size
			resSz := float64(sw.length)

			// Use route pattern to keep labels bounded
			path := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				path = rctx.RoutePattern()
			}

			// Manage prometheus metrics
			cl.reqDur.WithLabelValues(serverLabel, status, r.Method, r.Host, path).Observe(elapsed)
			cl.reqCnt.WithLabelValues(serverLabel, status, r.Method, r.Host, path).Inc()
			cl.reqSz.WithLabelValues(serverLabel, status, r.Method, r.Host, path).Observe(float64(reqSz))
			cl.resSz.WithLabelValues(serverLabel, status, r.Method, r.Host, path).Observe(resSz)
		})
	}
}

// GetExposeHandler Get handler to expose metrics for resquest.
func (*prometheusClient) GetExposeHandler() http.Handler {
	return promhttp.Handler()
}

// IncS3Operations Increment s3 operation counter.
func (cl *prometheusClient) IncS3Operations(bucketRef, bucketName, operation string) {
	cl.s3OperationsTotal.WithLabelValues(bucketRef, bucketName, operation).Inc()
}

func (cl *prometheusClient) IncCacheResults(bucketRef, result string) {
	cl.cacheResultsTotal.WithLabelValues(bucketRef, result).Inc()
}

func (cl *prometheusClient) IncTokenVerifications(result string) {
	cl.tokenVerificationsCnt.WithLabelValues(result).Inc()
}

func (cl *prometheusClient) IncIssuedTokens() {
	cl.issuedTokensTotal.Inc()
}

func (cl *prometheusClient) IncSucceedWebhooks(webhookName, action string) {
	cl.succeedWebhooks.WithLabelValues(webhookName, action).Inc()
}

func (cl *prometheusClient) IncFailedWebhooks(webhookName, action string) {
	cl.failedWebhooks.WithLabelValues(webhookName, action).Inc()
}

func (cl *prometheusClient) register() {
	cl.reqCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "How many HTTP requests have been processed ?",
		},
		[]string{"server", "status_code", "method", "host", "path"},
	)
	prometheus.MustRegister(cl.reqCnt)

	cl.reqDur = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds.",
		},
		[]string{"server", "status_code", "method", "host", "path"},
	)
	prometheus.MustRegister(cl.reqDur)

	cl.reqSz = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "http_request_size_bytes",
			Help: "The HTTP request sizes in bytes.",
		},
		[]string{"server", "status_code", "method", "host", "path"},
	)
	prometheus.MustRegister(cl.reqSz)

	cl.resSz = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "http_response_size_bytes",
			Help: "The HTTP response sizes in bytes.",
		},
		[]string{"server", "status_code", "method", "host", "path"},
	)
	prometheus.MustRegister(cl.resSz)

	cl.up = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "up",
			Help: "1 = up, 0 = down",
		},
		[]string{"component"},
	)
	cl.up.WithLabelValues("s3-media-proxy").Set(1)
	prometheus.MustRegister(cl.up)

	cl.s3OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s3_operations_total",
			Help: "How many operations are generated to s3 in total ?",
		},
		[]string{"bucket_ref", "bucket_name", "operation"},
	)
	prometheus.MustRegister(cl.s3OperationsTotal)

	cl.cacheResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "How many cache lookups have been done by result ?",
		},
		[]string{"bucket_ref", "result"},
	)
	prometheus.MustRegister(cl.cacheResultsTotal)

	cl.tokenVerificationsCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_verifications_total",
			Help: "How many access tokens have been verified by result ?",
		},
		[]string{"result"},
	)
	prometheus.MustRegister(cl.tokenVerificationsCnt)

	cl.issuedTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "issued_tokens_total",
			Help: "How many access tokens have been issued ?",
		},
	)
	prometheus.MustRegister(cl.issuedTokensTotal)

	cl.succeedWebhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "succeed_webhooks_total",
			Help: "How many webhooks have been succeed ?",
		},
		[]string{"webhook_name", "action_name"},
	)
	prometheus.MustRegister(cl.succeedWebhooks)

	cl.failedWebhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "failed_webhooks_total",
			Help: "How many webhooks have been failed ?",
		},
		[]string{"webhook_name", "action_name"},
	)
	prometheus.MustRegister(cl.failedWebhooks)
}
