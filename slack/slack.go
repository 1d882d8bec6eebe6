// Package slack implements the Slack side of the OAuth2 authorization-code
// flow: exchanging an authorization code for an access token, fetching the
// authenticated user's profile, and mapping the responses into a normalized
// identity with an ordered claim set.
package slack

import "errors"

// Vendor-defined wire endpoints.
const (
	// AuthorizeURL is where the browser is redirected to grant consent.
	AuthorizeURL = "https://slack.com/oauth/v2/authorize"

	// TokenURL exchanges an authorization code for an access token.
	TokenURL = "https://slack.com/api/oauth.v2.access"

	// UserInfoURL resolves a user id into profile information.
	UserInfoURL = "https://slack.com/api/users.info"

	// OpenIDIssuer is the issuer for Sign in with Slack (OIDC).
	OpenIDIssuer = "https://slack.com"
)

// ScopeIdentify is the minimum scope every authorize request must carry.
const ScopeIdentify = "identify"

var (
	// ErrInvalidState is returned when the state parameter is missing,
	// unparseable, or fails verification.
	ErrInvalidState = errors.New("invalid state parameter")

	// ErrProviderDenied is returned when Slack reports an error on callback,
	// typically because the user denied consent.
	ErrProviderDenied = errors.New("provider denied authorization")

	// ErrCorrelationFailed is returned when the correlation id recovered from
	// the state does not match the marker captured at challenge time.
	ErrCorrelationFailed = errors.New("correlation validation failed")

	// ErrTokenExchangeFailed is returned when the code-for-token exchange fails.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrProfileFetchFailed is returned when the user-info fetch fails.
	// Non-fatal: the flow continues with token-derived fields only.
	ErrProfileFetchFailed = errors.New("user profile fetch failed")
)
