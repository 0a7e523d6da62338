package cache

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/log"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/metrics"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/s3client"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/tracing"
)

// ErrFillFailed is matched by errors returned by a cache fill.
var ErrFillFailed = errors.Sentinel("cache fill failed")

// Headers sent back on not modified answers.
var notModifiedHeaders = []string{"Cache-Control", "ETag", "Expires", "Last-Modified"}

type fillError struct {
	err error
}

func (e *fillError) Error() string { return "cache fill failed: " + e.err.Error() }

func (e *fillError) Unwrap() error { return e.err }

func (e *fillError) Is(target error) bool { return target == ErrFillFailed } // nolint: errorlint // Sentinel comparison

type state struct {
	cfg         *config.CacheConfig
	store       *entryStore
	flight      *group
	maxBodySize int64
}

type service struct {
	st         atomic.Pointer[state]
	cfgManager config.Manager
	metricsCl  metrics.Client
	logger     log.Logger
	clock      func() time.Time
}

func (s *service) Initialize() error {
	// Get configuration
	cfg := s.cfgManager.GetConfig()

	// Check if cache is enabled
	if cfg.Cache == nil || !cfg.Cache.Enabled {
		s.st.Store(nil)

		return nil
	}

	// Create store
	sto, err := newEntryStore(cfg.Cache)
	// Check error
	if err != nil {
		return err
	}

	s.st.Store(&state{
		cfg:         cfg.Cache,
		store:       sto,
		flight:      newGroup(cfg.Cache.FillTimeout),
		maxBodySize: sto.maxBodySize(cfg.Cache.MaxEntrySize),
	})

	return nil
}

func (s *service) Reload() error {
	// Get configuration
	cfg := s.cfgManager.GetConfig()
	// Get previous state
	old := s.st.Load()

	// Keep store when nothing changed
	if old != nil && cfg.Cache != nil && cfg.Cache.Enabled && sameStoreSettings(old.cfg, cfg.Cache) {
		return nil
	}

	// Initialize
	err := s.Initialize()
	// Check error
	if err != nil {
		return err
	}

	// Clear previous store
	if old != nil {
		return old.store.clear(context.Background())
	}

	return nil
}

func sameStoreSettings(a, b *config.CacheConfig) bool {
	return a.Store == b.Store &&
		a.Size == b.Size &&
		a.MaxEntrySize == b.MaxEntrySize &&
		a.TTL == b.TTL &&
		a.StaleRetention == b.StaleRetention &&
		a.FillTimeout == b.FillTimeout
}

func (s *service) Get(ctx context.Context, req *Request, fetch Fetcher) (*Result, error) {
	st := s.st.Load()
	// Check if cache is enabled
	if st == nil {
		return direct(ctx, req, fetch, "")
	}

	// Requests that can't be answered from cache
	if req.Bypass || !isCacheableRequest(req) {
		return s.bypass(ctx, req, fetch)
	}

	logger := s.getLogger(ctx)
	key := req.Key.String()
	now := s.clock()

	// Get entry
	entry, err := st.store.get(ctx, key)
	// Check error
	if err != nil {
		// Store failures never fail a request
		logger.WithError(err).Warnf("cache store read failed for %s, fetching object storage directly", key)

		return s.bypass(ctx, req, fetch)
	}

	// Ignore entries past their stale retention
	if entry != nil && !now.Before(entry.FreshUntil.Add(st.cfg.StaleRetention)) {
		entry = nil
	}

	// Fresh entry
	if entry != nil && now.Before(entry.FreshUntil) {
		// Check if object is known as uncacheable
		if entry.Uncacheable {
			return s.bypass(ctx, req, fetch)
		}

		logger.Debugf("cache hit for %s", key)
		s.metricsCl.IncCacheResults(req.Key.Bucket, metrics.CacheHit)

		return fromEntry(entry, req, StatusHit), nil
	}

	// Stale entry is revalidated
	var stale *Entry
	if entry != nil && !entry.Uncacheable {
		stale = entry
	}

	// Fill through single flight
	outcome, shared, err := st.flight.do(ctx, key, s.fill(st, key, stale, fetch), s.commit(st, key, logger))
	// Check error
	if err != nil {
		return nil, err
	}

	logger.Debugf("cache fill for %s done (shared: %t)", key, shared)

	// Check fill error
	if outcome.err != nil {
		return nil, outcome.err
	}

	// Object can't be cached, its body is shared by every waiter
	if outcome.stream != nil {
		s.metricsCl.IncCacheResults(req.Key.Bucket, metrics.CacheBypass)

		return fromStream(ctx, outcome.stream, req), nil
	}

	// Metrics
	if outcome.status == StatusRevalidated {
		s.metricsCl.IncCacheResults(req.Key.Bucket, metrics.CacheRevalidated)
	} else {
		s.metricsCl.IncCacheResults(req.Key.Bucket, metrics.CacheMiss)
	}

	return fromEntry(outcome.entry, req, outcome.status), nil
}

func (s *service) Invalidate(ctx context.Context, key Key) error {
	st := s.st.Load()
	// Check if cache is enabled
	if st == nil {
		return nil
	}

	k := key.String()

	// Detach in-flight fill first so it can't store after deletion
	if st.flight.forget(k) {
		s.getLogger(ctx).Debugf("in-flight cache fill for %s detached", k)
	}

	return st.store.delete(ctx, k)
}

func (s *service) bypass(ctx context.Context, req *Request, fetch Fetcher) (*Result, error) {
	s.metricsCl.IncCacheResults(req.Key.Bucket, metrics.CacheBypass)

	return direct(ctx, req, fetch, StatusBypass)
}

func (s *service) fill(st *state, key string, stale *Entry, fetch Fetcher) fillFunc {
	return func(ctx context.Context) *fillOutcome {
		// Fill outlives its first caller
		ctx, fillTrace := tracing.StartFollowingTrace(ctx, "cache.fill")
		defer fillTrace.Finish()

		fillTrace.SetTag("cache.key", key)

		// Conditional headers
		h := http.Header{}

		if stale != nil {
			if stale.ETag != "" {
				h.Set("If-None-Match", stale.ETag)
			}

			if stale.LastModified != "" {
				h.Set("If-Modified-Since", stale.LastModified)
			}
		}

		// Fetch
		out, err := fetch(ctx, http.MethodGet, h)
		// Check error
		if err != nil {
			return &fillOutcome{
				err: errors.WithStack(&fillError{err: fillCause(ctx, err)}),
				// Object was deleted
				remove: stale != nil && errors.Is(err, s3client.ErrNotFound),
			}
		}

		now := s.clock()

		// Stale entry is still valid
		if out.StatusCode == http.StatusNotModified {
			if stale == nil {
				return &fillOutcome{err: errors.WithStack(&fillError{err: errors.New("unexpected not modified answer")})}
			}

			e := *stale
			e.FreshUntil = freshUntil(now, st.cfg.TTL, e.Header)
			e.LastValidated = now

			return &fillOutcome{entry: &e, status: StatusRevalidated}
		}

		// Check if object can be cached
		if !isCacheableResponse(out, st.maxBodySize) {
			if out.Body == nil {
				out.Body = http.NoBody
			}

			return &fillOutcome{
				entry: &Entry{
					Uncacheable:   true,
					FreshUntil:    now.Add(st.cfg.TTL),
					LastValidated: now,
				},
				status: StatusBypass,
				stream: newStream(out),
			}
		}

		// Ensure body is closed
		defer out.Body.Close()

		// Read body
		body, err := io.ReadAll(io.LimitReader(out.Body, out.ContentLength+1))
		// Check error
		if err != nil {
			return &fillOutcome{err: errors.WithStack(&fillError{err: fillCause(ctx, err)})}
		}

		// Check size
		if int64(len(body)) != out.ContentLength {
			return &fillOutcome{err: errors.WithStack(&fillError{err: errors.Errorf(
				"object body has %d bytes instead of %d", len(body), out.ContentLength,
			)})}
		}

		// Build entry
		header := out.Header.Clone()
		header.Set("Content-Length", strconv.Itoa(len(body)))

		return &fillOutcome{
			entry: &Entry{
				Header:        header,
				Body:          body,
				ETag:          header.Get("ETag"),
				LastModified:  header.Get("Last-Modified"),
				FreshUntil:    freshUntil(now, st.cfg.TTL, header),
				LastValidated: now,
			},
			status: StatusMiss,
		}
	}
}

func (s *service) commit(st *state, key string, logger log.Logger) commitFunc {
	return func(o *fillOutcome) {
		// In-memory store operations don't block
		ctx := context.Background()

		// Remove deleted objects
		if o.remove {
			err := st.store.delete(ctx, key)
			if err != nil {
				logger.WithError(err).Warnf("cannot remove cache entry %s", key)
			}
		}

		// Failed fills are never stored
		if o.err != nil || o.entry == nil {
			return
		}

		err := st.store.set(ctx, key, o.entry)
		// Check error
		if err != nil {
			logger.WithError(err).Warnf("cannot store cache entry %s", key)
		}
	}
}

func (s *service) getLogger(ctx context.Context) log.Logger {
	logger := log.GetLoggerFromContext(ctx)
	if logger == nil {
		return s.logger
	}

	return logger
}

func direct(ctx context.Context, req *Request, fetch Fetcher, status string) (*Result, error) {
	out, err := fetch(ctx, req.Method, req.Header)
	// Check error
	if err != nil {
		return nil, err
	}

	return &Result{
		Body:          out.Body,
		Header:        out.Header,
		StatusCode:    out.StatusCode,
		ContentLength: out.ContentLength,
		CacheStatus:   status,
	}, nil
}

// fillCause returns the fill timeout instead of the cancellation it caused.
func fillCause(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), errFillTimeout) {
		return errors.WrapIf(errFillTimeout, err.Error())
	}

	return err
}

func fromStream(ctx context.Context, st *stream, req *Request) *Result {
	e := &Entry{
		Header:       st.out.Header,
		ETag:         st.out.Header.Get("ETag"),
		LastModified: st.out.Header.Get("Last-Modified"),
	}

	// Client already has this version
	if isNotModified(req.Header, e) {
		st.release()

		return notModified(e, StatusBypass)
	}

	res := &Result{
		Header:        st.out.Header.Clone(),
		StatusCode:    st.out.StatusCode,
		ContentLength: st.out.ContentLength,
		CacheStatus:   StatusBypass,
	}

	// Only GET has a body
	if req.Method == http.MethodGet {
		res.Body = st.claim(ctx)
	} else {
		st.release()
	}

	return res
}

func notModified(e *Entry, status string) *Result {
	h := http.Header{}

	for _, k := range notModifiedHeaders {
		for _, v := range e.Header.Values(k) {
			h.Add(k, v)
		}
	}

	return &Result{
		Header:        h,
		StatusCode:    http.StatusNotModified,
		ContentLength: -1,
		CacheStatus:   status,
	}
}

func fromEntry(e *Entry, req *Request, status string) *Result {
	// Client already has this version
	if isNotModified(req.Header, e) {
		return notModified(e, status)
	}

	res := &Result{
		Header:        e.Header.Clone(),
		StatusCode:    http.StatusOK,
		ContentLength: int64(len(e.Body)),
		CacheStatus:   status,
	}

	// Only GET has a body
	if req.Method == http.MethodGet {
		res.Body = io.NopCloser(bytes.NewReader(e.Body))
	}

	return res
}

func freshUntil(now time.Time, ttl time.Duration, h http.Header) time.Time {
	cc := h.Get("Cache-Control")
	// Upstream asks for revalidation on each use
	if hasDirective(cc, "no-cache") || hasDirective(cc, "max-age=0") {
		return now
	}

	return now.Add(ttl)
}

func isCacheableRequest(req *Request) bool {
	// Only reads
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return false
	}

	// Partial and preconditioned reads go to object storage
	for _, k := range []string{"Range", "If-Range", "If-Match", "If-Unmodified-Since"} {
		if req.Header.Get(k) != "" {
			return false
		}
	}

	cc := req.Header.Get("Cache-Control")

	return !hasDirective(cc, "no-cache") &&
		!hasDirective(cc, "no-store") &&
		!hasDirective(req.Header.Get("Pragma"), "no-cache")
}

func isCacheableResponse(out *s3client.GetOutput, maxBodySize int64) bool {
	// Only complete objects
	if out.StatusCode != http.StatusOK || out.Body == nil {
		return false
	}

	// Size must be known and small enough
	if out.ContentLength < 0 || out.ContentLength > maxBodySize {
		return false
	}

	cc := out.Header.Get("Cache-Control")

	return !hasDirective(cc, "no-store") && !hasDirective(cc, "private")
}

func isNotModified(h http.Header, e *Entry) bool {
	// If-None-Match has precedence
	if inm := h.Get("If-None-Match"); inm != "" {
		// Check etag exists
		if e.ETag == "" {
			return false
		}

		for _, t := range strings.Split(inm, ",") {
			t = strings.TrimSpace(t)
			if t == "*" || strings.TrimPrefix(t, "W/") == strings.TrimPrefix(e.ETag, "W/") {
				return true
			}
		}

		return false
	}

	ims := h.Get("If-Modified-Since")
	// Check headers
	if ims == "" || e.LastModified == "" {
		return false
	}

	imsT, err := http.ParseTime(ims)
	if err != nil {
		return false
	}

	lmT, err := http.ParseTime(e.LastModified)
	if err != nil {
		return false
	}

	return !lmT.After(imsT)
}

func hasDirective(value, directive string) bool {
	for _, d := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(d), directive) {
			return true
		}
	}

	return false
}
