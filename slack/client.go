package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds outbound calls when the caller's context carries no
// deadline of its own.
const DefaultTimeout = 10 * time.Second

// Client talks to Slack's token and user-info endpoints. It is stateless and
// safe for concurrent use; retries, if any, belong to the caller.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tokenURL     string
	userInfoURL  string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	ClientID     string
	ClientSecret string

	// HTTPClient is optional and defaults to a client with DefaultTimeout.
	HTTPClient *http.Client

	// TokenURL and UserInfoURL override the vendor endpoints, for tests.
	TokenURL    string
	UserInfoURL string
}

// NewClient creates a Slack API client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = UserInfoURL
	}

	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		userInfoURL:  userInfoURL,
	}
}

// Exchange redeems an authorization code for a token. The redirectURI must
// exactly match the one used in the challenge.
func (c *Client) Exchange(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	body, err := c.postForm(ctx, c.tokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrTokenExchangeFailed, err)
	}

	// Slack reports most failures as 200 + ok:false.
	if token.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrTokenExchangeFailed, token.Error)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", ErrTokenExchangeFailed)
	}

	return &token, nil
}

// UserInfo fetches the profile for userID using accessToken. Callers treat a
// failure here as non-fatal: the token response already carries the
// authoritative team and user ids.
func (c *Client) UserInfo(ctx context.Context, accessToken, userID string) (*UserInfoResponse, error) {
	form := url.Values{
		"token": {accessToken},
		"user":  {userID},
	}

	body, err := c.postForm(ctx, c.userInfoURL, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	var info UserInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrProfileFetchFailed, err)
	}
	if info.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrProfileFetchFailed, info.Error)
	}

	return &info, nil
}

// postForm sends a form-encoded POST and returns the body of a 2xx response.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
