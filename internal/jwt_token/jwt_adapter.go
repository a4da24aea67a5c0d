package jwttoken

import (
	"ucphost/internal/platform/middleware"
)

func ToMiddlewareClaims(claims *Claims) *middleware.JWTClaims {
	return &middleware.JWTClaims{
		Subject:  claims.Subject,
		Platform: claims.Platform,
		Scope:    claims.Scope,
		JTI:      claims.ID,
	}
}

// JWTServiceAdapter exposes access-token validation to the auth middleware.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateTokenUse(tokenString, UseAccess)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
