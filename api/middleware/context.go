package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxMerchantID contextKey = "merchant_id"
	ctxShop       contextKey = "shop"
)

func MerchantIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxMerchantID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func ShopFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShop).(string); ok {
		return v
	}
	return ""
}

// WithMerchantID injects the merchant identifier into the context.
func WithMerchantID(ctx context.Context, merchantID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxMerchantID, merchantID)
}

// WithShop injects the shop domain into the context for downstream handlers.
func WithShop(ctx context.Context, shop string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxShop, shop)
}
