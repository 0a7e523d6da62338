// Package router resolves public request paths into bucket object keys.
package router

import (
	"sort"
	"strings"

	"emperror.dev/errors"
)

// ErrRoutingMiss is returned when no rule matches a request path.
var ErrRoutingMiss = errors.Sentinel("no endpoint matches request path")

// ErrInvalidPath is returned when a request path tries to leave the rule bucket prefix.
var ErrInvalidPath = errors.Sentinel("invalid request path")

// Rule maps a public path prefix to a bucket path prefix.
type Rule struct {
	// PublicPrefix is the public path prefix (ex: /media/).
	PublicPrefix string
	// BucketPrefix is the path prefix inside the bucket (ex: /my-app/media/).
	BucketPrefix string
	// Bucket is the bucket reference.
	Bucket string
	// Data is carried untouched to the match.
	Data interface{}
}

// Match is the result of a successful resolution.
type Match struct {
	Rule *Rule
	// Key is the object key with a leading slash (ex: /my-app/media/logo.png).
	Key string
	// Remainder is the request path after the public prefix.
	Remainder string
}

// S3Key returns the object key as sent to the object storage.
func (m *Match) S3Key() string {
	return strings.TrimPrefix(m.Key, "/")
}

// Table is an immutable rule table sorted by descending prefix length.
type Table struct {
	rules []*Rule
}

// NewTable copies and sorts rules.
// Rules with the same prefix length keep their declaration order.
func NewTable(rules []*Rule) *Table {
	sorted := make([]*Rule, 0, len(rules))

	for _, r := range rules {
		// Normalize prefixes
		sorted = append(sorted, &Rule{
			PublicPrefix: normalizePrefix(r.PublicPrefix),
			BucketPrefix: normalizePrefix(r.BucketPrefix),
			Bucket:       r.Bucket,
			Data:         r.Data,
		})
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].PublicPrefix) > len(sorted[j].PublicPrefix)
	})

	return &Table{rules: sorted}
}

// Rules returns the sorted rules.
func (t *Table) Rules() []*Rule {
	return t.rules
}

// Resolve returns the longest rule matching the request path on a segment boundary.
// A rule /media/ matches /media and /media/logo.png but never /media2/logo.png.
func (t *Table) Resolve(requestPath string) (*Match, error) {
	// Loop over sorted rules
	for _, r := range t.rules {
		remainder, ok := matchPrefix(r.PublicPrefix, requestPath)
		// Check if rule matches
		if !ok {
			continue
		}

		// Check remainder segments
		if hasRelativeSegment(remainder) {
			return nil, errors.WithStack(ErrInvalidPath)
		}

		return &Match{
			Rule:      r,
			Key:       r.BucketPrefix + remainder,
			Remainder: remainder,
		}, nil
	}

	return nil, errors.WithStack(ErrRoutingMiss)
}

// ResolveKey finds the public path serving an object key of a bucket.
// It is the reverse of Resolve and returns false when no rule exposes the key.
func (t *Table) ResolveKey(bucket, key string) (string, bool) {
	fullKey := "/" + strings.TrimPrefix(key, "/")

	for _, r := range t.rules {
		if r.Bucket == bucket && strings.HasPrefix(fullKey, r.BucketPrefix) {
			return r.PublicPrefix + strings.TrimPrefix(fullKey, r.BucketPrefix), true
		}
	}

	return "", false
}

// matchPrefix returns the path remainder without leading slash.
func matchPrefix(prefix, requestPath string) (string, bool) {
	// Root prefix matches everything
	if prefix == "/" {
		return strings.TrimPrefix(requestPath, "/"), strings.HasPrefix(requestPath, "/")
	}

	// Exact match without trailing slash
	if requestPath == strings.TrimSuffix(prefix, "/") {
		return "", true
	}

	// Segment match
	if strings.HasPrefix(requestPath, prefix) {
		return requestPath[len(prefix):], true
	}

	return "", false
}

func normalizePrefix(p string) string {
	// Ensure leading slash
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	// Ensure trailing slash
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return p
}

func hasRelativeSegment(remainder string) bool {
	for _, s := range strings.Split(remainder, "/") {
		if s == "." || s == ".." {
			return true
		}
	}

	return false
}
