package signature

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner("shared-secret", 5*time.Minute)
	now := time.Now()
	body := []byte(`{"roblox_user_id":"123"}`)

	sig, err := signer.Sign("POST", "/api/v1/roster", now, body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sig, "v1="))

	ts := strconv.FormatInt(now.Unix(), 10)
	assert.NoError(t, signer.Verify("POST", "/api/v1/roster", ts, sig, body, now))
}

func TestVerifyRejectsMutatedBody(t *testing.T) {
	signer := NewSigner("shared-secret", 5*time.Minute)
	now := time.Now()
	body := []byte(`{"roblox_user_id":"123"}`)

	sig, err := signer.Sign("GET", "/api/v1/roster", now, body)
	require.NoError(t, err)
	ts := strconv.FormatInt(now.Unix(), 10)

	// flip a single byte anywhere in the body
	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		assert.Error(t, signer.Verify("GET", "/api/v1/roster", ts, sig, mutated, now))
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewSigner("shared-secret", 5*time.Minute)
	other := NewSigner("other-secret", 5*time.Minute)
	now := time.Now()

	sig, err := other.Sign("GET", "/api/v1/roster", now, nil)
	require.NoError(t, err)
	ts := strconv.FormatInt(now.Unix(), 10)
	assert.Error(t, signer.Verify("GET", "/api/v1/roster", ts, sig, nil, now))
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	signer := NewSigner("shared-secret", time.Minute)
	signed := time.Now().Add(-10 * time.Minute)

	sig, err := signer.Sign("GET", "/api/v1/roster", signed, nil)
	require.NoError(t, err)
	ts := strconv.FormatInt(signed.Unix(), 10)
	assert.Error(t, signer.Verify("GET", "/api/v1/roster", ts, sig, nil, time.Now()))
}

func TestVerifyRejectsUnknownScheme(t *testing.T) {
	signer := NewSigner("shared-secret", time.Minute)
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	assert.Error(t, signer.Verify("GET", "/api/v1/roster", ts, "v2=deadbeef", nil, time.Now()))
}
