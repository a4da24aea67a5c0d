package service

import (
	"context"
	"time"

	"ucphost/internal/audit"
	jwttoken "ucphost/internal/jwt_token"
	"ucphost/internal/negotiation"
	"ucphost/internal/shopping/models"
	dErrors "ucphost/pkg/domain-errors"
)

const (
	tokenTypeBearer      = "Bearer"
	authorizationCodeTTL = 10 * time.Minute
)

// LinkIdentity redeems an authorization code or refresh token for an access
// token scoped to the buyer's account.
func (s *Service) LinkIdentity(ctx context.Context, req models.LinkIdentityRequest) (any, error) {
	if s.tokens == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "identity linking is not configured")
	}

	var grant *jwttoken.Claims
	var err error
	switch req.GrantType {
	case models.GrantAuthorizationCode:
		if req.Code == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "code is required")
		}
		grant, err = s.tokens.ValidateTokenUse(req.Code, jwttoken.UseAuthorizationCode)
	case models.GrantRefreshToken:
		if req.RefreshToken == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "refresh_token is required")
		}
		grant, err = s.tokens.ValidateTokenUse(req.RefreshToken, jwttoken.UseRefresh)
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported grant_type")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid grant")
	}

	platform := platformOf(ctx)
	if grant.Platform != "" && platform != "" && grant.Platform != platform {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid grant")
	}
	if platform == "" {
		platform = grant.Platform
	}
	scope := grant.Scope
	if req.Scope != "" {
		scope = req.Scope
	}

	access, err := s.tokens.GenerateToken(jwttoken.UseAccess, grant.Subject, platform, scope, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}
	refresh, err := s.tokens.GenerateToken(jwttoken.UseRefresh, grant.Subject, platform, scope, s.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue refresh token")
	}

	s.logger.InfoContext(ctx, "identity linked",
		"account_id", grant.Subject,
		"grant_type", req.GrantType,
		"platform", platform,
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionIdentityLinked,
		AccountID: grant.Subject,
		Platform:  platform,
		Reason:    string(req.GrantType),
	})
	return &models.LinkedIdentity{
		AccessToken:  access,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
		RefreshToken: refresh,
		Scope:        scope,
		AccountID:    grant.Subject,
	}, nil
}

// IssueAuthorizationCode mints a short-lived code for accountID, as the
// business's own consent screen would after the buyer signs in.
func (s *Service) IssueAuthorizationCode(ctx context.Context, accountID, scope string) (string, error) {
	if s.tokens == nil {
		return "", dErrors.New(dErrors.CodeUnavailable, "identity linking is not configured")
	}
	if accountID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "account id is required")
	}
	code, err := s.tokens.GenerateToken(jwttoken.UseAuthorizationCode, accountID, platformOf(ctx), scope, authorizationCodeTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue authorization code")
	}
	return code, nil
}

func platformOf(ctx context.Context) string {
	if result, ok := negotiation.FromContext(ctx); ok {
		return result.ProfileURL
	}
	return ""
}
