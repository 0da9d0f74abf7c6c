package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cycle3/supplysync-backend/internal/webhooks/shopify"
	"github.com/cycle3/supplysync-backend/pkg/config"
)

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestShopifyWebhookRejectsBadSignature(t *testing.T) {
	cfg := config.ShopifyConfig{WebhookSecret: "whsec"}
	handler := ShopifyWebhook(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(`{"id":1}`))
	req.Header.Set(shopify.SignatureHeader, "bogus")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestShopifyWebhookPassesVerifiedBodyDownstream(t *testing.T) {
	cfg := config.ShopifyConfig{WebhookSecret: "whsec"}
	body := `{"id":1,"name":"#1001"}`

	var seen string
	handler := ShopifyWebhook(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body downstream: %v", err)
		}
		seen = string(raw)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", strings.NewReader(body))
	req.Header.Set(shopify.SignatureHeader, signBody("whsec", body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != body {
		t.Fatalf("body not restored for downstream handler: %q", seen)
	}
}
