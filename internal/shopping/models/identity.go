package models

// Grant types accepted by identity linking.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// LinkIdentityRequest exchanges an authorization grant for an access token
// bound to the buyer's account with this business.
type LinkIdentityRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// LinkedIdentity is the token response for a linked identity.
type LinkedIdentity struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
	Scope        string
	AccountID    string
}

// Fields returns the wire representation of the token response.
func (l *LinkedIdentity) Fields() map[string]any {
	f := map[string]any{
		"access_token": l.AccessToken,
		"token_type":   l.TokenType,
		"expires_in":   l.ExpiresIn,
		"account_id":   l.AccountID,
	}
	if l.RefreshToken != "" {
		f["refresh_token"] = l.RefreshToken
	}
	if l.Scope != "" {
		f["scope"] = l.Scope
	}
	return f
}
