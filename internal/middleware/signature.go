package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/signature"
)

const (
	headerSignature = "X-Signature"
	headerTimestamp = "X-Timestamp"

	maxSignedBody = 1 << 20
)

// Signature authenticates machine-to-machine requests with an HMAC over the
// method, path, timestamp, and body.
func Signature(signer *signature.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		sig := c.GetHeader(headerSignature)
		ts := c.GetHeader(headerTimestamp)
		if sig == "" || ts == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing signature headers"))
			c.Abort()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(io.LimitReader(c.Request.Body, maxSignedBody))
			if err != nil {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unreadable request body"))
				c.Abort()
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		if err := signer.Verify(c.Request.Method, c.Request.URL.Path, ts, sig, body, time.Now().UTC()); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid signature"))
			c.Abort()
			return
		}

		c.Next()
	}
}
