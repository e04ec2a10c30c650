package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign returns the hex HMAC-SHA256 of body as sent in the X-Signature header.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC of the raw webhook body.
func (c *HTTPClient) VerifySignature(body []byte, header string) bool {
	if len(c.secret) == 0 {
		return false
	}
	sig := strings.TrimPrefix(strings.TrimSpace(header), signaturePrefix)
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// SignatureConfigured reports whether a webhook secret is set.
func (c *HTTPClient) SignatureConfigured() bool {
	return len(c.secret) > 0
}
