package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/AreYouFreeBusy/go-slack-auth/audit"
	"github.com/AreYouFreeBusy/go-slack-auth/slack"
	"github.com/AreYouFreeBusy/go-slack-auth/state"
	"github.com/AreYouFreeBusy/go-slack-auth/storage"
)

const (
	// DefaultCallbackPath is where Slack sends the browser back.
	DefaultCallbackPath = "/signin-slack"

	// DefaultAuthScheme names tickets produced by this middleware.
	DefaultAuthScheme = "slack"

	// DefaultCorrelationCookie is the name of the CSRF pairing cookie.
	DefaultCorrelationCookie = ".slackauth.correlation"
)

// SignInFunc establishes the host application's session from a completed
// ticket. Session persistence is owned by the host, not by this middleware.
type SignInFunc func(r *http.Request, w http.ResponseWriter, ticket *Ticket) error

// Options configures the Slack sign-in middleware. Immutable after New.
type Options struct {
	// ClientID and ClientSecret are the Slack app credentials. Required.
	ClientID     string
	ClientSecret string

	// Scopes to request. "identify" is always included exactly once.
	Scopes []string

	// Team restricts sign-in to one workspace when non-empty.
	Team string

	// CallbackPath is the path the middleware intercepts.
	// Defaults to DefaultCallbackPath.
	CallbackPath string

	// AuthScheme names tickets produced by the callback.
	// Defaults to DefaultAuthScheme.
	AuthScheme string

	// SignInScheme is the scheme the host signs tickets in under. When it
	// differs from AuthScheme the ticket is cloned under this scheme before
	// SignIn is invoked. Defaults to AuthScheme.
	SignInScheme string

	// CorrelationCookie names the CSRF pairing cookie.
	// Defaults to DefaultCorrelationCookie.
	CorrelationCookie string

	// CookieSecure marks the correlation cookie Secure. Enable whenever the
	// site is served over HTTPS.
	CookieSecure bool

	// StateTTL bounds how long a challenge stays redeemable.
	// Defaults to state.DefaultStateTTL.
	StateTTL time.Duration

	// Protector serializes properties into the state parameter. Required.
	Protector state.Protector

	// Client talks to Slack. When nil, one is built from the credentials.
	Client *slack.Client

	// ReplayStore optionally enforces one-time state use.
	ReplayStore storage.ReplayStore

	// Auditor records flow events. Defaults to a no-op logger.
	Auditor audit.Logger

	// Events hooks into the flow. Nil hooks default to no-ops.
	Events Events

	// SignIn hands completed tickets to the host for session establishment.
	SignIn SignInFunc
}

// Validate checks required fields.
func (o *Options) Validate() error {
	if o.ClientID == "" {
		return errors.New("client ID is required")
	}
	if o.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	if o.Protector == nil {
		return errors.New("state protector is required")
	}
	return nil
}

// setDefaults fills unset optional fields.
func (o *Options) setDefaults() {
	if o.CallbackPath == "" {
		o.CallbackPath = DefaultCallbackPath
	}
	if o.AuthScheme == "" {
		o.AuthScheme = DefaultAuthScheme
	}
	if o.SignInScheme == "" {
		o.SignInScheme = o.AuthScheme
	}
	if o.CorrelationCookie == "" {
		o.CorrelationCookie = DefaultCorrelationCookie
	}
	if o.StateTTL == 0 {
		o.StateTTL = state.DefaultStateTTL
	}
	if o.Client == nil {
		o.Client = slack.NewClient(slack.ClientConfig{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
		})
	}
	if o.Auditor == nil {
		o.Auditor = audit.DefaultLogger()
	}
	o.Events.setDefaults()
}
