package s3client

import (
	"net/http"
	"strings"
)

// Headers kept on object storage answers.
var responseHeaders = []string{
	"Accept-Ranges",
	"Cache-Control",
	"Content-Disposition",
	"Content-Encoding",
	"Content-Language",
	"Content-Length",
	"Content-Range",
	"Content-Type",
	"ETag",
	"Expires",
	"Last-Modified",
}

// Client headers forwarded on reads.
var readRequestHeaders = []string{
	"Range",
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"If-Unmodified-Since",
}

// Client headers forwarded on writes.
var writeRequestHeaders = []string{
	"Cache-Control",
	"Content-Disposition",
	"Content-Encoding",
	"Content-Language",
	"Content-MD5",
	"Content-Type",
	"Expires",
}

const userMetadataPrefix = "X-Amz-Meta-"

// FilterResponseHeader returns a copy containing only content and validator headers.
func FilterResponseHeader(h http.Header) http.Header {
	return copyHeaders(h, responseHeaders)
}

func filterReadRequestHeader(h http.Header) http.Header {
	return copyHeaders(h, readRequestHeaders)
}

func filterWriteRequestHeader(h http.Header) http.Header {
	res := copyHeaders(h, writeRequestHeaders)

	// Keep user metadata
	for k, v := range h {
		ck := http.CanonicalHeaderKey(k)
		if strings.HasPrefix(ck, userMetadataPrefix) && len(ck) > len(userMetadataPrefix) {
			res[ck] = append([]string(nil), v...)
		}
	}

	return res
}

func copyHeaders(h http.Header, keys []string) http.Header {
	res := http.Header{}

	// Check nil
	if h == nil {
		return res
	}

	for _, k := range keys {
		if v := h.Values(k); len(v) > 0 {
			res[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}

	return res
}
