package twitter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dghubble/oauth1"
	twitterauth "github.com/dghubble/oauth1/twitter"

	"faves_sorter/internal/domain"
)

// OAuthConfig holds the consumer credentials of the registered application.
type OAuthConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
}

// Connector owns the OAuth1 application credentials. It runs the three-legged
// handshake and builds signed clients for authenticated users.
type Connector struct {
	oauth  *oauth1.Config
	api    Config
	logger *slog.Logger
}

func NewConnector(oc OAuthConfig, api Config, logger *slog.Logger) *Connector {
	cfg := oauth1.NewConfig(oc.ConsumerKey, oc.ConsumerSecret)
	cfg.CallbackURL = oc.CallbackURL
	cfg.Endpoint = twitterauth.AuthorizeEndpoint

	return &Connector{
		oauth:  cfg,
		api:    api,
		logger: logger.With("component", "twitter"),
	}
}

func (c *Connector) RequestToken() (token, secret string, err error) {
	token, secret, err = c.oauth.RequestToken()
	if err != nil {
		return "", "", fmt.Errorf("%w: request token: %w", domain.ErrRemote, err)
	}
	return token, secret, nil
}

func (c *Connector) AuthorizationURL(requestToken string) (string, error) {
	u, err := c.oauth.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("authorization url: %w", err)
	}
	return u.String(), nil
}

func (c *Connector) AccessToken(requestToken, requestSecret, verifier string) (token, secret string, err error) {
	token, secret, err = c.oauth.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return "", "", fmt.Errorf("%w: access token: %w", domain.ErrRemote, err)
	}
	return token, secret, nil
}

// Client returns an API client signing requests with the given access token.
func (c *Connector) Client(token, secret string) *Client {
	httpClient := c.oauth.Client(context.Background(), oauth1.NewToken(token, secret))
	return NewClient(c.api, httpClient, c.logger)
}

func (c *Connector) VerifyCredentials(ctx context.Context, token, secret string) (*Profile, error) {
	return c.Client(token, secret).VerifyCredentials(ctx)
}

func (c *Connector) ShowUser(ctx context.Context, user *domain.User) (*Profile, error) {
	return c.Client(user.OAuthToken, user.OAuthTokenSecret).ShowUser(ctx, user.ScreenName)
}

// Favorites returns the paging fetcher for user.
func (c *Connector) Favorites(user *domain.User) *FavoritesSource {
	return NewFavoritesSource(c.Client(user.OAuthToken, user.OAuthTokenSecret), c.api.PageSize, c.logger)
}
