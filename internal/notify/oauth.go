package notify

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// DefaultTokenURL is Google's OAuth2 token endpoint, the usual XOAUTH2 provider.
const DefaultTokenURL = "https://oauth2.googleapis.com/token"

// OAuthConfig holds the credentials for SMTP XOAUTH2.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	Scopes       []string
}

// NewTokenSource returns a token source that trades the long-lived refresh
// token for short-lived access tokens and caches each one until it expires.
//
// ctx is used for token refresh requests and should outlive the mailer.
func NewTokenSource(ctx context.Context, c OAuthConfig) (oauth2.TokenSource, error) {
	if c.ClientID == "" || c.RefreshToken == "" {
		return nil, errors.New("notify: xoauth2 needs a client id and a refresh token")
	}
	tokenURL := c.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       c.Scopes,
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}), nil
}
