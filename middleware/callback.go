package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/AreYouFreeBusy/go-slack-auth/audit"
	"github.com/AreYouFreeBusy/go-slack-auth/slack"
	"github.com/AreYouFreeBusy/go-slack-auth/state"
	"github.com/google/uuid"
)

// handleCallback drives the callback sequence and the return endpoint. Every
// failure mode below this point results in either a 500 (no ticket could be
// produced at all) or a redirect carrying error=access_denied; nothing
// escapes as an unhandled fault.
func (m *Middleware) handleCallback(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	ticket, err := m.authenticate(w, r, traceID)

	event := &audit.Event{
		Type:    audit.EventCallback,
		Result:  audit.ResultSuccess,
		TraceID: traceID,
	}
	if err != nil {
		event.Result = audit.ResultFailure
		if errors.Is(err, slack.ErrProviderDenied) {
			event.Result = audit.ResultDenied
		}
		event.Error = err.Error()
	}
	if ticket != nil && ticket.Identity != nil {
		event.TeamID = ticket.Identity.TeamID
		event.UserID = ticket.Identity.UserID
	}
	m.audit(r, event)

	if ticket == nil {
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	returnCtx := &ReturnEndpointContext{
		Request:      r,
		Response:     w,
		Ticket:       ticket,
		SignInScheme: m.opts.SignInScheme,
	}
	if ticket.Properties != nil {
		returnCtx.RedirectURI = ticket.Properties.RedirectURI
	}

	if err := m.opts.Events.OnReturnEndpoint(returnCtx); err != nil {
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	if returnCtx.Handled {
		return
	}

	target := returnCtx.RedirectURI
	if target == "" {
		target = "/"
	}

	if ticket.Identity == nil {
		m.opts.Events.ApplyRedirect(w, r, appendAccessDenied(target))
		return
	}

	signInTicket := ticket
	if returnCtx.SignInScheme != "" && ticket.Scheme != returnCtx.SignInScheme {
		signInTicket = ticket.WithScheme(returnCtx.SignInScheme)
	}
	if m.opts.SignIn != nil {
		if err := m.opts.SignIn(r, w, signInTicket); err != nil {
			m.audit(r, &audit.Event{
				Type:    audit.EventCallback,
				Result:  audit.ResultFailure,
				TraceID: traceID,
				Error:   fmt.Sprintf("sign-in failed: %v", err),
			})
			m.opts.Events.ApplyRedirect(w, r, appendAccessDenied(target))
			return
		}
	}

	m.opts.Events.ApplyRedirect(w, r, target)
}

// authenticate runs steps 1-9 of the callback sequence. A nil ticket means
// nothing could be recovered; a ticket with a nil Identity is a failed
// attempt that still knows where to send the user. Panics are contained here
// and surface as a failed attempt.
func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request, traceID string) (ticket *Ticket, err error) {
	var recovered *state.Properties
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected failure during callback: %v", rec)
			ticket = nil
			if recovered != nil {
				ticket = m.failedTicket(recovered)
			}
		}
	}()

	query := r.URL.Query()
	stateParam, ok := singleValue(query, "state")
	if !ok || stateParam == "" {
		return nil, slack.ErrInvalidState
	}

	props, protectErr := m.opts.Protector.Unprotect(stateParam)
	if protectErr != nil || props == nil {
		return nil, slack.ErrInvalidState
	}
	recovered = props

	if errParam, ok := singleValue(query, "error"); !ok || errParam != "" {
		return m.failedTicket(props), fmt.Errorf("%w: %s", slack.ErrProviderDenied, errParam)
	}

	if err := m.validateCorrelation(w, r, props); err != nil {
		return m.failedTicket(props), err
	}

	code, ok := singleValue(query, "code")
	if !ok {
		return m.failedTicket(props), errors.New("multi-valued code parameter")
	}

	ctx := r.Context()
	token, exchangeErr := m.opts.Client.Exchange(ctx, code, m.callbackURL(r))

	exchangeEvent := &audit.Event{
		Type:    audit.EventTokenExchange,
		Result:  audit.ResultSuccess,
		TraceID: traceID,
	}
	if exchangeErr != nil {
		exchangeEvent.Result = audit.ResultFailure
		exchangeEvent.Error = exchangeErr.Error()
	}
	m.audit(r, exchangeEvent)

	if exchangeErr != nil {
		return m.failedTicket(props), exchangeErr
	}

	identity := slack.IdentityFromToken(token)

	// Profile enrichment is best-effort: the token response already carries
	// the authoritative team and user ids.
	if identity.UserID != "" {
		info, infoErr := m.opts.Client.UserInfo(ctx, identity.AccessToken, identity.UserID)
		if infoErr != nil {
			m.audit(r, &audit.Event{
				Type:    audit.EventUserInfo,
				Result:  audit.ResultFailure,
				TraceID: traceID,
				TeamID:  identity.TeamID,
				UserID:  identity.UserID,
				Error:   infoErr.Error(),
			})
		} else {
			if info.User.ID != "" {
				identity.UserID = info.User.ID
			}
			if info.User.Name != "" {
				identity.UserName = info.User.Name
			}
		}
	}

	authCtx := &AuthenticatedContext{
		Request:    r,
		Token:      token,
		Identity:   identity,
		Claims:     slack.ClaimsFor(identity),
		Properties: props,
	}
	if hookErr := m.opts.Events.OnAuthenticated(authCtx); hookErr != nil {
		return m.failedTicket(props), fmt.Errorf("authenticated hook rejected attempt: %w", hookErr)
	}

	return &Ticket{
		Scheme:     m.opts.AuthScheme,
		Claims:     authCtx.Claims,
		Identity:   authCtx.Identity,
		Properties: authCtx.Properties,
	}, nil
}

// validateCorrelation pairs the correlation id recovered from the state with
// the cookie written at challenge time, spends it against the replay store
// when one is configured, and clears both markers.
func (m *Middleware) validateCorrelation(w http.ResponseWriter, r *http.Request, props *state.Properties) error {
	expected := props.Get(state.CorrelationKey)
	props.Delete(state.CorrelationKey)

	cookie, err := r.Cookie(m.opts.CorrelationCookie)
	m.clearCorrelationCookie(w)

	if expected == "" || err != nil || cookie.Value == "" {
		return slack.ErrCorrelationFailed
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(cookie.Value)) != 1 {
		return slack.ErrCorrelationFailed
	}

	if m.opts.ReplayStore != nil {
		if err := m.opts.ReplayStore.MarkUsed(r.Context(), expected, m.opts.StateTTL); err != nil {
			return fmt.Errorf("%w: %v", slack.ErrCorrelationFailed, err)
		}
	}
	return nil
}

// failedTicket is a no-identity outcome that preserves the recovered
// properties for redirect context.
func (m *Middleware) failedTicket(props *state.Properties) *Ticket {
	return &Ticket{
		Scheme:     m.opts.AuthScheme,
		Properties: props,
	}
}

// singleValue returns the parameter value, reporting false when it appears
// more than once.
func singleValue(query url.Values, key string) (string, bool) {
	values := query[key]
	if len(values) > 1 {
		return "", false
	}
	if len(values) == 0 {
		return "", true
	}
	return values[0], true
}

// appendAccessDenied adds error=access_denied to the redirect target.
func appendAccessDenied(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("error", "access_denied")
	u.RawQuery = q.Encode()
	return u.String()
}
