// Package oauth wraps the Spotify authorization server: building authorize
// URLs, exchanging codes, and refreshing tokens.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	spotifyendpoint "golang.org/x/oauth2/spotify"
)

// scopeLibraryModify is the only scope the bot requests: write access to the
// user's library.
const scopeLibraryModify = "user-library-modify"

// ErrRefreshRejected signals the provider refused the refresh token outright
// (revoked or invalid grant). The user must redo the connect flow.
var ErrRefreshRejected = errors.New("oauth: refresh token rejected by provider")

// TokenPair is one coherent access/refresh token pair with its absolute expiry.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenExchanger encapsulates the OAuth code and refresh grants against the
// music provider.
type TokenExchanger interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// SpotifyExchanger is the default TokenExchanger built on golang.org/x/oauth2.
type SpotifyExchanger struct {
	cfg *oauth2.Config
}

var _ TokenExchanger = (*SpotifyExchanger)(nil)

// NewSpotifyExchanger constructs an exchanger for the given app credentials.
func NewSpotifyExchanger(clientID, clientSecret, redirectURI string) *SpotifyExchanger {
	return &SpotifyExchanger{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{scopeLibraryModify},
		Endpoint:     spotifyendpoint.Endpoint,
	}}
}

// AuthCodeURL builds the provider authorization URL carrying state.
func (e *SpotifyExchanger) AuthCodeURL(state string) string {
	return e.cfg.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token pair.
func (e *SpotifyExchanger) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	tok, err := e.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return nil, fmt.Errorf("exchange authorization code: empty access token")
	}
	if strings.TrimSpace(tok.RefreshToken) == "" {
		return nil, fmt.Errorf("exchange authorization code: no refresh token in response")
	}
	return pairFromToken(tok), nil
}

// RefreshToken trades a refresh token for a fresh pair. The provider may
// rotate the refresh token; when it does not, RefreshToken in the result is
// empty and the caller keeps the old one.
func (e *SpotifyExchanger) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	src := e.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && refreshRejected(retrieveErr) {
			return nil, fmt.Errorf("%w: %s", ErrRefreshRejected, retrieveErr.ErrorCode)
		}
		return nil, fmt.Errorf("refresh token grant: %w", err)
	}
	return pairFromToken(tok), nil
}

func refreshRejected(err *oauth2.RetrieveError) bool {
	if err.ErrorCode == "invalid_grant" {
		return true
	}
	if err.Response == nil {
		return false
	}
	return err.Response.StatusCode == http.StatusBadRequest || err.Response.StatusCode == http.StatusUnauthorized
}

func pairFromToken(tok *oauth2.Token) *TokenPair {
	return &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.UTC(),
	}
}
