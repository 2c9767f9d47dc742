package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Scheme is the signature version prefix carried in the X-Signature header.
const Scheme = "v1"

// Signer creates and validates HMAC-SHA256 request signatures for
// machine-to-machine API access.
type Signer struct {
	secret []byte
	maxAge time.Duration
}

// NewSigner constructs a signer with the shared secret and a freshness window.
func NewSigner(secret string, maxAge time.Duration) *Signer {
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &Signer{secret: []byte(secret), maxAge: maxAge}
}

// Sign returns the X-Signature header value for the given request parts.
// The canonical payload is "METHOD\nPATH\nUNIX_TIMESTAMP\nBODY".
func (s *Signer) Sign(method, path string, timestamp time.Time, body []byte) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("signing secret missing")
	}
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write(canonical(method, path, timestamp.Unix(), body))
	return Scheme + "=" + hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks a received signature against the request parts. The timestamp
// header guards against replay; requests outside the freshness window fail.
// Comparison uses hmac.Equal, which is constant time.
func (s *Signer) Verify(method, path, tsHeader, sigHeader string, body []byte, now time.Time) error {
	if len(s.secret) == 0 {
		return fmt.Errorf("signing secret missing")
	}

	value, ok := strings.CutPrefix(sigHeader, Scheme+"=")
	if !ok {
		return fmt.Errorf("unsupported signature scheme")
	}
	received, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("malformed signature")
	}

	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed timestamp")
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > s.maxAge || age < -s.maxAge {
		return fmt.Errorf("signature timestamp outside allowed window")
	}

	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write(canonical(method, path, ts, body))
	if !hmac.Equal(mac.Sum(nil), received) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func canonical(method, path string, unix int64, body []byte) []byte {
	header := fmt.Sprintf("%s\n%s\n%d\n", strings.ToUpper(method), path, unix)
	return append([]byte(header), body...)
}
