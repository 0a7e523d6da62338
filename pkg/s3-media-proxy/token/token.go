// Package token issues and verifies stateless capability tokens bound to a resource path.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"time"

	"emperror.dev/errors"
)

// Reason explains why a token was refused.
type Reason string

const (
	// Missing token wasn't sent with the request.
	Missing Reason = "missing"
	// Malformed token cannot be decoded.
	Malformed Reason = "malformed"
	// BadSignature token authentication code doesn't match.
	BadSignature Reason = "bad_signature"
	// Expired token is past its expiry and grace window.
	Expired Reason = "expired"
	// PathMismatch token is bound to another resource.
	PathMismatch Reason = "path_mismatch"
)

const (
	payloadVersion byte = 1
	// version + expiry in unix nanoseconds.
	payloadHeaderLength = 1 + 8
	separator           = "."
)

var encoding = base64.RawURLEncoding

// macEncodedLength is the length of an encoded HMAC-SHA256.
var macEncodedLength = encoding.EncodedLen(sha256.Size)

// ErrEmptySecret is returned when a service is built without secret.
var ErrEmptySecret = errors.Sentinel("token secret cannot be empty")

// VerifyError is returned when a token is refused.
type VerifyError struct {
	Reason Reason
}

func (e *VerifyError) Error() string {
	return "invalid access token: " + string(e.Reason)
}

// Service issues and verifies tokens with a process wide secret.
type Service interface {
	// Issue returns a token granting access to the resource path until now + ttl.
	// A resource path ending with / grants access to everything below it.
	Issue(resourcePath string, ttl time.Duration) (string, time.Time, error)
	// Verify returns nil when the token grants access to the requested path at the given time.
	// Otherwise a *VerifyError is returned.
	Verify(token, requestedPath string, now time.Time) error
}

type service struct {
	secret []byte
	grace  time.Duration
	now    func() time.Time
}

// NewService builds a token service.
// Grace is the clock skew tolerated after expiry. Clock defaults to time.Now.
func NewService(secret []byte, grace time.Duration, clock func() time.Time) (Service, error) {
	// Check secret
	if len(secret) == 0 {
		return nil, errors.WithStack(ErrEmptySecret)
	}

	// Default clock
	if clock == nil {
		clock = time.Now
	}

	// Copy secret
	s := make([]byte, len(secret))
	copy(s, secret)

	return &service{secret: s, grace: grace, now: clock}, nil
}

func (s *service) Issue(resourcePath string, ttl time.Duration) (string, time.Time, error) {
	// Check inputs
	if !strings.HasPrefix(resourcePath, "/") {
		return "", time.Time{}, errors.Errorf("resource path %q must start with /", resourcePath)
	}

	if ttl <= 0 {
		return "", time.Time{}, errors.Errorf("token ttl must be positive, got %s", ttl)
	}

	expiry := s.now().Add(ttl)

	// Build payload
	payload := make([]byte, payloadHeaderLength, payloadHeaderLength+len(resourcePath))
	payload[0] = payloadVersion
	binary.BigEndian.PutUint64(payload[1:payloadHeaderLength], uint64(expiry.UnixNano()))
	payload = append(payload, resourcePath...)

	signed := encoding.EncodeToString(payload) + separator

	return signed + s.mac(signed), expiry, nil
}

func (s *service) Verify(token, requestedPath string, now time.Time) error {
	// Check framing
	if len(token) <= macEncodedLength+len(separator) {
		return &VerifyError{Reason: Malformed}
	}

	signed, sig := token[:len(token)-macEncodedLength], token[len(token)-macEncodedLength:]

	// Compare authentication codes on the encoded form
	if !hmac.Equal([]byte(sig), []byte(s.mac(signed))) {
		return &VerifyError{Reason: BadSignature}
	}

	// Decode payload
	if !strings.HasSuffix(signed, separator) {
		return &VerifyError{Reason: Malformed}
	}

	payload, err := encoding.DecodeString(strings.TrimSuffix(signed, separator))
	if err != nil || len(payload) <= payloadHeaderLength || payload[0] != payloadVersion {
		return &VerifyError{Reason: Malformed}
	}

	expiry := time.Unix(0, int64(binary.BigEndian.Uint64(payload[1:payloadHeaderLength])))
	resourcePath := string(payload[payloadHeaderLength:])

	// Check expiry
	if !now.Before(expiry.Add(s.grace)) {
		return &VerifyError{Reason: Expired}
	}

	// Check path
	if !pathAllowed(resourcePath, requestedPath) {
		return &VerifyError{Reason: PathMismatch}
	}

	return nil
}

func (s *service) mac(signed string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(signed))

	return encoding.EncodeToString(h.Sum(nil))
}

func pathAllowed(resourcePath, requestedPath string) bool {
	// Directory scope
	if strings.HasSuffix(resourcePath, "/") {
		return requestedPath == strings.TrimSuffix(resourcePath, "/") || strings.HasPrefix(requestedPath, resourcePath)
	}

	// Exact scope
	return requestedPath == resourcePath
}

// ReasonOf returns the refusal reason of an error or an empty reason.
func ReasonOf(err error) Reason {
	var verr *VerifyError
	if errors.As(err, &verr) {
		return verr.Reason
	}

	return ""
}
