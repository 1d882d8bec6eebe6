package middleware

import (
	"net/http"

	"github.com/AreYouFreeBusy/go-slack-auth/slack"
	"github.com/AreYouFreeBusy/go-slack-auth/state"
)

// Ticket is the outcome of one callback: an identity (nil when the attempt
// failed), its claims, and the properties recovered from the state parameter.
type Ticket struct {
	Scheme     string
	Claims     []slack.Claim
	Identity   *slack.Identity
	Properties *state.Properties
}

// WithScheme clones the ticket under another scheme with the same claims.
func (t *Ticket) WithScheme(scheme string) *Ticket {
	clone := *t
	clone.Scheme = scheme
	clone.Claims = append([]slack.Claim(nil), t.Claims...)
	return &clone
}

// AuthenticatedContext is passed to OnAuthenticated after identity assembly.
// The hook may inspect or mutate the identity, claims, and properties before
// the ticket is finalized.
type AuthenticatedContext struct {
	Request    *http.Request
	Token      *slack.TokenResponse
	Identity   *slack.Identity
	Claims     []slack.Claim
	Properties *state.Properties
}

// ReturnEndpointContext is passed to OnReturnEndpoint after the ticket is
// produced. The hook may override the final redirect target, swap the
// sign-in scheme, or mark the response as already handled.
type ReturnEndpointContext struct {
	Request      *http.Request
	Response     http.ResponseWriter
	Ticket       *Ticket
	RedirectURI  string
	SignInScheme string
	Handled      bool
}

// Events holds the flow hooks. Any nil hook defaults to a no-op; redirects
// default to a plain 302.
type Events struct {
	// OnAuthenticated runs after identity assembly, before the ticket is
	// finalized. Returning an error fails the attempt.
	OnAuthenticated func(*AuthenticatedContext) error

	// OnReturnEndpoint runs after ticket creation and may override the final
	// redirect or mark the response handled.
	OnReturnEndpoint func(*ReturnEndpointContext) error

	// ApplyRedirect performs the HTTP redirect for the challenge and the
	// return endpoint.
	ApplyRedirect func(w http.ResponseWriter, r *http.Request, url string)
}

func (e *Events) setDefaults() {
	if e.OnAuthenticated == nil {
		e.OnAuthenticated = func(*AuthenticatedContext) error { return nil }
	}
	if e.OnReturnEndpoint == nil {
		e.OnReturnEndpoint = func(*ReturnEndpointContext) error { return nil }
	}
	if e.ApplyRedirect == nil {
		e.ApplyRedirect = func(w http.ResponseWriter, r *http.Request, url string) {
			http.Redirect(w, r, url, http.StatusFound)
		}
	}
}
