package s3client

import (
	"net/http"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// EmptyPayloadHash is the SHA256 of an empty payload.
const EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// UnsignedPayload is used for streamed uploads.
const UnsignedPayload = "UNSIGNED-PAYLOAD"

const (
	signingService      = "s3"
	contentSha256Header = "X-Amz-Content-Sha256"
	hexChars            = "0123456789ABCDEF"
)

var s3Signer = v4.NewSigner(func(o *v4.SignerOptions) {
	// S3 keys are escaped once
	o.DisableURIPathEscaping = true
})

// Sign will sign the request in place with AWS Signature Version 4 using the S3 rules.
// The request URL path must already be set, the escaped form used on the wire is computed here.
func Sign(req *http.Request, creds aws.Credentials, region, payloadHash string, signTime time.Time) error {
	// Compute escaped path
	req.URL.RawPath = EscapePath(req.URL.Path)
	// Set payload hash header
	req.Header.Set(contentSha256Header, payloadHash)

	// Sign
	err := s3Signer.SignHTTP(req.Context(), creds, req, payloadHash, signingService, region, signTime)

	return errors.WithStack(err)
}

// EscapePath will escape a path the way S3 expects it in a canonical request:
// everything except unreserved characters and "/" is percent encoded.
func EscapePath(p string) string {
	var sb strings.Builder

	sb.Grow(len(p))

	for i := 0; i < len(p); i++ {
		c := p[i]
		if isUnreserved(c) || c == '/' {
			sb.WriteByte(c)

			continue
		}

		sb.WriteByte('%')
		sb.WriteByte(hexChars[c>>4])
		sb.WriteByte(hexChars[c&0x0F])
	}

	return sb.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}
