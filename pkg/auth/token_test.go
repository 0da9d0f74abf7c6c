package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cycle3/supplysync-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "supplysync",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	merchantID := uuid.New()

	payload := AccessTokenPayload{
		MerchantID: merchantID,
		Shop:       "demo.myshopify.com",
		Email:      "ops@demo.com",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.MerchantID != merchantID {
		t.Fatalf("expected merchant_id %s, got %s", merchantID, claims.MerchantID)
	}
	if claims.Shop != "demo.myshopify.com" {
		t.Fatalf("shop not preserved, got %s", claims.Shop)
	}
	if claims.Email != "ops@demo.com" {
		t.Fatalf("email not preserved, got %s", claims.Email)
	}

	// RegisteredClaims is embedded, so access fields directly.
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "supplysync",
		ExpirationMinutes: 10,
	}
	payload := AccessTokenPayload{
		MerchantID: uuid.New(),
		Shop:       "demo.myshopify.com",
	}

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token+"x")
	if err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "supplysync",
		ExpirationMinutes: 15,
	}
	payload := AccessTokenPayload{
		MerchantID: uuid.New(),
		Shop:       "demo.myshopify.com",
	}

	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenMissingShop(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "supplysync",
		ExpirationMinutes: 5,
	}
	payload := AccessTokenPayload{
		MerchantID: uuid.New(),
	}

	if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
		t.Fatal("expected missing shop error")
	}
}
