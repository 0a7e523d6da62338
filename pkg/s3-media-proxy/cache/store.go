package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/allegro/bigcache"
	"github.com/coocood/freecache"
	gocache "github.com/eko/gocache/v2/cache"
	"github.com/eko/gocache/v2/store"
	"github.com/oxyno-zeta/s3-media-proxy/pkg/s3-media-proxy/config"
)

const (
	// Room kept for the encoded entry envelope (headers, validators, dates).
	entryOverhead = 4 * 1024
	// Freecache refuses entries bigger than 1/1024 of its size.
	freecacheEntryRatio = 1024
	bigcacheShards      = 16
	bytesInMegabyte     = 1024 * 1024
	bigcacheCleanWindow = time.Minute
)

// entryStore stores gob encoded entries in a bounded in-memory store.
type entryStore struct {
	ccache *gocache.Cache
	// Maximum encoded entry size accepted by the underlying store
	maxEntrySize int64
	// Store time to live
	ttl time.Duration
}

func newEntryStore(cfg *config.CacheConfig) (*entryStore, error) {
	// Store keeps entries during freshness and stale retention
	ttl := cfg.TTL + cfg.StaleRetention

	// Initialize store
	var (
		sto          store.StoreInterface
		maxEntrySize int64
	)

	// Switch for supported caches
	switch cfg.Store {
	// Bigcache case
	case config.BigcacheStoreType:
		bcfg := bigcache.DefaultConfig(ttl)
		bcfg.Shards = bigcacheShards
		bcfg.CleanWindow = bigcacheCleanWindow
		bcfg.Verbose = false
		bcfg.MaxEntrySize = int(cfg.MaxEntrySize)

		// Hard limit is expressed in megabytes
		sizeMB := int(cfg.Size / bytesInMegabyte)
		if sizeMB < 1 {
			sizeMB = 1
		}

		bcfg.HardMaxCacheSize = sizeMB
		// An entry must fit in a shard
		maxEntrySize = int64(sizeMB) * bytesInMegabyte / bigcacheShards

		// Init bigcache
		bcache, err := bigcache.NewBigCache(bcfg)
		// Check error
		if err != nil {
			return nil, errors.WithStack(err)
		}

		// Create BigCache store
		sto = store.NewBigcache(bcache, nil)
	// Freecache case
	default:
		// Initialize free cache
		fca := freecache.NewCache(int(cfg.Size))
		maxEntrySize = cfg.Size / freecacheEntryRatio

		// Create store
		sto = store.NewFreecache(fca, &store.Options{
			Expiration: ttl,
		})
	}

	return &entryStore{
		ccache:       gocache.New(sto),
		maxEntrySize: maxEntrySize,
		ttl:          ttl,
	}, nil
}

// maxBodySize returns the biggest body that can be stored.
func (es *entryStore) maxBodySize(configured int64) int64 {
	limit := es.maxEntrySize - entryOverhead
	if configured < limit {
		return configured
	}

	return limit
}

// get returns nil without error when entry doesn't exist.
func (es *entryStore) get(ctx context.Context, key string) (*Entry, error) {
	// Get value from cache
	res, err := es.ccache.Get(ctx, key)
	// Check error
	if err != nil {
		// Check if error if a not found error
		if isNotFoundError(err) {
			// Not an error
			return nil, nil
		}

		// Return error
		return nil, errors.WithStack(err)
	}

	var raw []byte

	switch v := res.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, errors.Errorf("unexpected cache value type %T", res)
	}

	// Create decoder from buffer
	dec := gob.NewDecoder(bytes.NewReader(raw))

	var entry Entry
	// Decode in result
	err = dec.Decode(&entry)
	// Check error
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &entry, nil
}

func (es *entryStore) set(ctx context.Context, key string, entry *Entry) error {
	// Create buffer
	var buf bytes.Buffer
	// Create gob encoder with buffer
	enc := gob.NewEncoder(&buf)

	// Encode value
	err := enc.Encode(entry)
	// Check error
	if err != nil {
		return errors.WithStack(err)
	}

	// Check size
	if int64(buf.Len()) > es.maxEntrySize {
		return errors.Errorf("encoded entry of %d bytes is bigger than store limit %d", buf.Len(), es.maxEntrySize)
	}

	// Store in cache
	return errors.WithStack(es.ccache.Set(ctx, key, buf.Bytes(), &store.Options{Expiration: es.ttl}))
}

func (es *entryStore) delete(ctx context.Context, key string) error {
	err := es.ccache.Delete(ctx, key)
	// Deleting a missing entry isn't an error
	if err != nil && !isNotFoundError(err) {
		return errors.WithStack(err)
	}

	return nil
}

func (es *entryStore) clear(ctx context.Context) error {
	return errors.WithStack(es.ccache.Clear(ctx))
}

func isNotFoundError(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "nable to retrieve") ||
		strings.Contains(msg, "failed to delete")
}
