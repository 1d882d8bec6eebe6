// Package middleware wires Slack OAuth2 sign-in into any net/http
// application: a challenge that redirects the browser to Slack's authorize
// endpoint with CSRF-safe state, and a callback handler that validates the
// round trip, exchanges the code, and hands a normalized identity ticket to
// the host for session establishment.
package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AreYouFreeBusy/go-slack-auth/audit"
	"github.com/AreYouFreeBusy/go-slack-auth/slack"
	"github.com/AreYouFreeBusy/go-slack-auth/state"
)

// Middleware implements the Slack sign-in flow. Safe for concurrent use:
// options are immutable after New and no per-request state is shared.
type Middleware struct {
	opts Options
}

// New creates the middleware, validating and defaulting the options.
func New(opts Options) (*Middleware, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.setDefaults()
	return &Middleware{opts: opts}, nil
}

// Handler intercepts requests to the configured callback path and passes
// everything else through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == m.opts.CallbackPath {
			m.handleCallback(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Challenge redirects the browser to Slack's authorize endpoint. props may be
// nil; an empty redirect target is filled with the current request URI. No
// network calls occur here.
func (m *Middleware) Challenge(w http.ResponseWriter, r *http.Request, props *state.Properties) error {
	if props == nil {
		props = state.NewProperties()
	}
	if props.RedirectURI == "" {
		props.RedirectURI = absoluteRequestURL(r)
	}

	correlationID, err := state.NewCorrelationID()
	if err != nil {
		return fmt.Errorf("failed to generate correlation id: %w", err)
	}
	props.Set(state.CorrelationKey, correlationID)
	m.writeCorrelationCookie(w, correlationID)

	// Per-attempt scope/team overrides are consumed into the query string and
	// must not survive inside the opaque state.
	scope := m.scopeParam(props.Get(state.ScopeKey))
	team := props.Get(state.TeamKey)
	if team == "" {
		team = m.opts.Team
	}
	props.Delete(state.ScopeKey)
	props.Delete(state.TeamKey)

	protected, err := m.opts.Protector.Protect(props)
	if err != nil {
		return fmt.Errorf("failed to protect state: %w", err)
	}

	query := url.Values{
		"response_type": {"code"},
		"client_id":     {m.opts.ClientID},
		"redirect_uri":  {m.callbackURL(r)},
		"scope":         {scope},
		"state":         {protected},
	}
	if team != "" {
		query.Set("team", team)
	}

	m.audit(r, &audit.Event{
		Type:   audit.EventChallenge,
		Result: audit.ResultSuccess,
	})
	m.opts.Events.ApplyRedirect(w, r, slack.AuthorizeURL+"?"+query.Encode())
	return nil
}

// scopeParam joins the effective scopes with single spaces, guaranteeing
// "identify" appears exactly once.
func (m *Middleware) scopeParam(override string) string {
	scopes := m.opts.Scopes
	if override != "" {
		scopes = strings.Fields(override)
	}

	out := make([]string, 0, len(scopes)+1)
	seen := make(map[string]bool, len(scopes)+1)
	for _, s := range scopes {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if !seen[slack.ScopeIdentify] {
		out = append(out, slack.ScopeIdentify)
	}
	return strings.Join(out, " ")
}

// callbackURL computes base URI + callback path; it must match between the
// challenge and the token exchange.
func (m *Middleware) callbackURL(r *http.Request) string {
	return requestScheme(r) + "://" + r.Host + m.opts.CallbackPath
}

func (m *Middleware) writeCorrelationCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CorrelationCookie,
		Value:    value,
		Path:     m.opts.CallbackPath,
		MaxAge:   int(m.opts.StateTTL / time.Second),
		Secure:   m.opts.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Middleware) clearCorrelationCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CorrelationCookie,
		Value:    "",
		Path:     m.opts.CallbackPath,
		MaxAge:   -1,
		Secure:   m.opts.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Middleware) audit(r *http.Request, event *audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Source = &audit.Source{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	_ = m.opts.Auditor.Log(r.Context(), event)
}

// absoluteRequestURL reconstructs the request's absolute URI, including the
// query string.
func absoluteRequestURL(r *http.Request) string {
	return requestScheme(r) + "://" + r.Host + r.URL.RequestURI()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return fwd
	}
	return r.RemoteAddr
}
