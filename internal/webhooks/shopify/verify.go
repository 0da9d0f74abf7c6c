package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Webhook headers set by the platform on every delivery.
const (
	SignatureHeader = "X-Shopify-Hmac-Sha256"
	ShopHeader      = "X-Shopify-Shop-Domain"
	WebhookIDHeader = "X-Shopify-Webhook-Id"
	TopicHeader     = "X-Shopify-Topic"
)

// VerifySignature checks the delivery's HMAC-SHA256 signature. The platform
// sends the digest base64 encoded.
func VerifySignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
