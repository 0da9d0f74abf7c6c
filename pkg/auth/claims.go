package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	MerchantID uuid.UUID
	Shop       string
	Email      string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to merchant clients.
type AccessTokenClaims struct {
	MerchantID uuid.UUID `json:"merchant_id"`
	Shop       string    `json:"shop"`
	Email      string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}
