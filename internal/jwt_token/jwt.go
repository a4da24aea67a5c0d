package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "ucphost/pkg/domain-errors"
)

// TokenUse distinguishes the tokens minted for identity linking.
type TokenUse string

const (
	// UseAuthorizationCode is a short-lived grant redeemed at identity linking.
	UseAuthorizationCode TokenUse = "code"
	// UseAccess authorizes calls on behalf of a linked account.
	UseAccess TokenUse = "access"
	// UseRefresh is redeemed for a new access token.
	UseRefresh TokenUse = "refresh"
)

// Claims represents the JWT claims for identity-linking tokens.
// The registered subject is the buyer's account ID with the business.
type Claims struct {
	Use      TokenUse `json:"token_use"`
	Platform string   `json:"platform,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateToken signs a token of the given use for accountID.
func (s *JWTService) GenerateToken(
	use TokenUse,
	accountID string,
	platform string,
	scope string,
	expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Use:      use,
		Platform: platform,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GenerateAccessToken signs an access token.
func (s *JWTService) GenerateAccessToken(accountID, platform, scope string, expiresIn time.Duration) (string, error) {
	return s.GenerateToken(UseAccess, accountID, platform, scope, expiresIn)
}

// ValidateToken verifies signature, issuer, audience and expiry.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// ValidateTokenUse validates the token and checks it was minted for use.
func (s *JWTService) ValidateTokenUse(tokenString string, use TokenUse) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token not valid for this use")
	}
	return claims, nil
}
