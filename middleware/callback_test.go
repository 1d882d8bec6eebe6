package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/AreYouFreeBusy/go-slack-auth/slack"
	"github.com/AreYouFreeBusy/go-slack-auth/state"
	"github.com/AreYouFreeBusy/go-slack-auth/storage"
)

// fakeSlack is a stand-in for Slack's token and user-info endpoints with
// call counting, so tests can assert which endpoints were reached.
type fakeSlack struct {
	server *httptest.Server

	tokenCalls int
	infoCalls  int

	tokenBody  string
	infoBody   string
	infoStatus int
}

func newFakeSlack(t *testing.T) *fakeSlack {
	t.Helper()
	f := &fakeSlack{
		tokenBody: `{"ok":true,"access_token":"xoxb-1","bot_user_id":"B1",
			"authed_user":{"id":"U1"},"team":{"id":"T1","name":"Acme"}}`,
		infoBody:   `{"ok":true,"user":{"id":"U1","name":"casey"}}`,
		infoStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.infoCalls++
		if f.infoStatus != http.StatusOK {
			http.Error(w, "unavailable", f.infoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.infoBody))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSlack) client() *slack.Client {
	return slack.NewClient(slack.ClientConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TokenURL:     f.server.URL + "/token",
		UserInfoURL:  f.server.URL + "/userinfo",
	})
}

func newCallbackMiddleware(t *testing.T, f *fakeSlack, modify func(*Options)) *Middleware {
	t.Helper()
	return newTestMiddleware(t, func(o *Options) {
		o.Client = f.client()
		if modify != nil {
			modify(o)
		}
	})
}

// startFlow issues a challenge and returns a callback request carrying the
// produced state and correlation cookie, plus the extra query values merged in.
func startFlow(t *testing.T, mw *Middleware, extra url.Values) *http.Request {
	t.Helper()

	props := state.NewProperties()
	props.RedirectURI = "/welcome"
	location, cookie := issueChallenge(t, mw, props)

	query := url.Values{"state": {location.Query().Get("state")}}
	if extra.Get("code") == "" && !extra.Has("error") {
		query.Set("code", "code-1")
	}
	for k, vs := range extra {
		query[k] = vs
	}

	req := httptest.NewRequest("GET", "http://app.example.com/signin-slack?"+query.Encode(), nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	return req
}

func serveCallback(t *testing.T, mw *Middleware, req *http.Request) *http.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	mw.Handler(http.NotFoundHandler()).ServeHTTP(rec, req)
	return rec.Result()
}

func assertAccessDenied(t *testing.T, res *http.Response) {
	t.Helper()
	if res.StatusCode != http.StatusFound {
		t.Fatalf("Expected 302, got %d", res.StatusCode)
	}
	location, err := url.Parse(res.Header.Get("Location"))
	if err != nil {
		t.Fatalf("Expected parseable Location, got %v", err)
	}
	if location.Path != "/welcome" {
		t.Errorf("Expected redirect back to /welcome, got %q", location.Path)
	}
	if location.Query().Get("error") != "access_denied" {
		t.Errorf("Expected error=access_denied, got %q", res.Header.Get("Location"))
	}
}

func TestCallbackSuccess(t *testing.T) {
	f := newFakeSlack(t)

	var signedIn *Ticket
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.SignIn = func(r *http.Request, w http.ResponseWriter, ticket *Ticket) error {
			signedIn = ticket
			return nil
		}
	})

	res := serveCallback(t, mw, startFlow(t, mw, nil))

	if res.StatusCode != http.StatusFound {
		t.Fatalf("Expected 302, got %d", res.StatusCode)
	}
	if got := res.Header.Get("Location"); got != "/welcome" {
		t.Errorf("Expected redirect to /welcome, got %q", got)
	}
	if f.tokenCalls != 1 || f.infoCalls != 1 {
		t.Errorf("Expected one token and one user-info call, got %d/%d", f.tokenCalls, f.infoCalls)
	}

	if signedIn == nil || signedIn.Identity == nil {
		t.Fatal("Expected sign-in with an identity")
	}
	if signedIn.Identity.TeamID != "T1" || signedIn.Identity.TeamName != "Acme" {
		t.Errorf("Unexpected team %q/%q", signedIn.Identity.TeamID, signedIn.Identity.TeamName)
	}
	if signedIn.Identity.UserName != "casey" {
		t.Errorf("Expected user name refined from profile, got %q", signedIn.Identity.UserName)
	}
	if signedIn.Identity.BotUserSub() != "T1_B1" {
		t.Errorf("Expected bot user sub T1_B1, got %q", signedIn.Identity.BotUserSub())
	}
	if len(signedIn.Claims) == 0 || signedIn.Claims[0].Value != "B1" {
		t.Errorf("Expected name-identifier claim B1, got %v", signedIn.Claims)
	}

	// The correlation cookie must be cleared after use.
	cleared := false
	for _, c := range res.Cookies() {
		if c.Name == DefaultCorrelationCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected correlation cookie to be cleared")
	}
}

func TestCallbackProviderDeniedSkipsTokenEndpoint(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, nil)

	req := startFlow(t, mw, url.Values{"error": {"access_denied"}})
	res := serveCallback(t, mw, req)

	assertAccessDenied(t, res)
	if f.tokenCalls != 0 {
		t.Errorf("Expected no token exchange after provider denial, got %d calls", f.tokenCalls)
	}
}

func TestCallbackCorrelationMismatchSkipsTokenEndpoint(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, nil)

	req := startFlow(t, mw, nil)
	// Replace the cookie with a foreign value.
	req.Header.Del("Cookie")
	req.AddCookie(&http.Cookie{Name: DefaultCorrelationCookie, Value: "attacker-controlled"})

	res := serveCallback(t, mw, req)

	assertAccessDenied(t, res)
	if f.tokenCalls != 0 {
		t.Errorf("Expected no token exchange after correlation mismatch, got %d calls", f.tokenCalls)
	}
}

func TestCallbackMissingCorrelationCookie(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, nil)

	req := startFlow(t, mw, nil)
	req.Header.Del("Cookie")

	res := serveCallback(t, mw, req)

	assertAccessDenied(t, res)
	if f.tokenCalls != 0 {
		t.Errorf("Expected no token exchange without correlation cookie, got %d calls", f.tokenCalls)
	}
}

func TestCallbackInvalidState(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, nil)

	for name, target := range map[string]string{
		"missing":     "http://app.example.com/signin-slack?code=code-1",
		"unparseable": "http://app.example.com/signin-slack?code=code-1&state=garbage",
		"multivalued": "http://app.example.com/signin-slack?code=code-1&state=a&state=b",
	} {
		t.Run(name, func(t *testing.T) {
			res := serveCallback(t, mw, httptest.NewRequest("GET", target, nil))
			if res.StatusCode != http.StatusInternalServerError {
				t.Errorf("Expected 500 for %s state, got %d", name, res.StatusCode)
			}
		})
	}
	if f.tokenCalls != 0 {
		t.Errorf("Expected no token exchange for invalid state, got %d calls", f.tokenCalls)
	}
}

func TestCallbackMultiValuedCodeSkipsTokenEndpoint(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, nil)

	req := startFlow(t, mw, url.Values{"code": {"code-1", "code-2"}})
	res := serveCallback(t, mw, req)

	assertAccessDenied(t, res)
	if f.tokenCalls != 0 {
		t.Errorf("Expected no token exchange for multi-valued code, got %d calls", f.tokenCalls)
	}
}

func TestCallbackTokenExchangeFailure(t *testing.T) {
	f := newFakeSlack(t)
	f.tokenBody = `{"ok":false,"error":"invalid_code"}`
	mw := newCallbackMiddleware(t, f, nil)

	res := serveCallback(t, mw, startFlow(t, mw, nil))

	assertAccessDenied(t, res)
	if f.infoCalls != 0 {
		t.Errorf("Expected no user-info call after failed exchange, got %d", f.infoCalls)
	}
}

func TestCallbackUserInfoFailureIsNonFatal(t *testing.T) {
	f := newFakeSlack(t)
	f.infoStatus = http.StatusBadGateway

	var signedIn *Ticket
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.SignIn = func(r *http.Request, w http.ResponseWriter, ticket *Ticket) error {
			signedIn = ticket
			return nil
		}
	})

	res := serveCallback(t, mw, startFlow(t, mw, nil))

	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/welcome" {
		t.Fatalf("Expected success redirect, got %d %q", res.StatusCode, res.Header.Get("Location"))
	}
	if signedIn == nil || signedIn.Identity == nil {
		t.Fatal("Expected an identity despite profile fetch failure")
	}
	if signedIn.Identity.UserID != "U1" || signedIn.Identity.TeamID != "T1" {
		t.Errorf("Expected token-derived ids, got %+v", signedIn.Identity)
	}
	if signedIn.Identity.UserName != "" {
		t.Errorf("Expected unset user name, got %q", signedIn.Identity.UserName)
	}
}

func TestCallbackReplayRejected(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.ReplayStore = storage.NewInMemoryReplayStore()
	})

	props := state.NewProperties()
	props.RedirectURI = "/welcome"
	location, cookie := issueChallenge(t, mw, props)

	makeReq := func() *http.Request {
		req := httptest.NewRequest("GET",
			"http://app.example.com/signin-slack?code=code-1&state="+url.QueryEscape(location.Query().Get("state")), nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		return req
	}

	first := serveCallback(t, mw, makeReq())
	if first.Header.Get("Location") != "/welcome" {
		t.Fatalf("Expected first callback to succeed, got %q", first.Header.Get("Location"))
	}

	second := serveCallback(t, mw, makeReq())
	assertAccessDenied(t, second)
	if f.tokenCalls != 1 {
		t.Errorf("Expected replay to skip the token endpoint, got %d calls", f.tokenCalls)
	}
}

func TestCallbackHookRejection(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.Events.OnAuthenticated = func(ctx *AuthenticatedContext) error {
			return slack.ErrProviderDenied
		}
	})

	res := serveCallback(t, mw, startFlow(t, mw, nil))
	assertAccessDenied(t, res)
}

func TestCallbackPanicContained(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.Events.OnAuthenticated = func(ctx *AuthenticatedContext) error {
			panic("boom")
		}
	})

	// Must not crash the server; the recovered properties still carry the
	// redirect target, so the user lands back with access_denied.
	res := serveCallback(t, mw, startFlow(t, mw, nil))
	assertAccessDenied(t, res)
}

func TestCallbackHookOverridesRedirect(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.Events.OnReturnEndpoint = func(ctx *ReturnEndpointContext) error {
			ctx.RedirectURI = "/custom"
			return nil
		}
	})

	res := serveCallback(t, mw, startFlow(t, mw, nil))
	if got := res.Header.Get("Location"); got != "/custom" {
		t.Errorf("Expected hook-overridden redirect /custom, got %q", got)
	}
}

func TestCallbackHookMarksHandled(t *testing.T) {
	f := newFakeSlack(t)
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.Events.OnReturnEndpoint = func(ctx *ReturnEndpointContext) error {
			ctx.Response.WriteHeader(http.StatusTeapot)
			ctx.Handled = true
			return nil
		}
	})

	res := serveCallback(t, mw, startFlow(t, mw, nil))
	if res.StatusCode != http.StatusTeapot {
		t.Errorf("Expected handled response to stand, got %d", res.StatusCode)
	}
}

func TestCallbackClonesTicketUnderSignInScheme(t *testing.T) {
	f := newFakeSlack(t)

	var signedIn *Ticket
	mw := newCallbackMiddleware(t, f, func(o *Options) {
		o.SignInScheme = "cookie"
		o.SignIn = func(r *http.Request, w http.ResponseWriter, ticket *Ticket) error {
			signedIn = ticket
			return nil
		}
	})

	serveCallback(t, mw, startFlow(t, mw, nil))

	if signedIn == nil {
		t.Fatal("Expected sign-in to run")
	}
	if signedIn.Scheme != "cookie" {
		t.Errorf("Expected ticket cloned under scheme cookie, got %q", signedIn.Scheme)
	}
	if len(signedIn.Claims) == 0 {
		t.Error("Expected claims preserved on the cloned ticket")
	}
}
