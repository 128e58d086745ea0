// Package signature provides HMAC-SHA256 webhook signing and verification.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Header names carried on every signed delivery. Both the delivery engine and
// the test-delivery API use these constants, so subscriber-side verification
// code is identical for real and test deliveries.
const (
	// HeaderSignature carries the hex HMAC-SHA256 of the raw request body.
	HeaderSignature = "X-Webhook-Signature"

	// HeaderTimestamp carries the delivery time as a millisecond epoch string.
	HeaderTimestamp = "X-Webhook-Timestamp"
)

// Signer computes HMAC-SHA256 signatures for webhook payloads.
type Signer struct{}

// NewSigner returns a new Signer.
func NewSigner() *Signer {
	return &Signer{}
}

// Sign generates the hex-encoded HMAC-SHA256 signature of body keyed by
// secret. The signature covers the exact serialized bytes that are sent on
// the wire. The key is opaque to the signer; callers may pass a stored
// secret hash as the key.
func (s *Signer) Sign(body []byte, secret string) string {
	return Sign(body, secret)
}

// Sign generates the hex-encoded HMAC-SHA256 signature of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
