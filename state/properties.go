// Package state handles the opaque OAuth2 state parameter: the per-attempt
// property bag that is round-tripped through Slack, and the protectors that
// make it tamper-evident.
package state

import (
	"crypto/rand"
	"encoding/base64"
)

// Reserved item keys inside a Properties bag.
const (
	// CorrelationKey holds the CSRF correlation id bound to one challenge.
	CorrelationKey = ".xsrf"

	// ScopeKey optionally overrides the configured scopes for one attempt.
	// It is consumed into the authorize query string and never serialized
	// into the state parameter.
	ScopeKey = "scope"

	// TeamKey optionally overrides the configured team hint for one attempt.
	// Consumed like ScopeKey.
	TeamKey = "team"
)

// Properties carries per-login-attempt data across the two OAuth2 redirects.
// It is serialized into the state parameter by a Protector and recovered on
// callback; a round trip must preserve it exactly.
type Properties struct {
	// RedirectURI is where the browser is sent after the flow completes.
	RedirectURI string `json:"redirect_uri,omitempty"`

	// Items holds arbitrary key/value pairs, including the reserved keys above.
	Items map[string]string `json:"items,omitempty"`
}

// NewProperties creates an empty property bag.
func NewProperties() *Properties {
	return &Properties{Items: make(map[string]string)}
}

// Get returns the item stored under key, or "" when absent.
func (p *Properties) Get(key string) string {
	if p.Items == nil {
		return ""
	}
	return p.Items[key]
}

// Set stores an item under key.
func (p *Properties) Set(key, value string) {
	if p.Items == nil {
		p.Items = make(map[string]string)
	}
	p.Items[key] = value
}

// Delete removes the item stored under key.
func (p *Properties) Delete(key string) {
	delete(p.Items, key)
}

// Clone returns a deep copy of the properties.
func (p *Properties) Clone() *Properties {
	clone := &Properties{RedirectURI: p.RedirectURI}
	if p.Items != nil {
		clone.Items = make(map[string]string, len(p.Items))
		for k, v := range p.Items {
			clone.Items[k] = v
		}
	}
	return clone
}

// Protector serializes properties into an opaque, tamper-evident string and
// recovers them on callback. Implementations must reject any blob they did
// not produce.
type Protector interface {
	// Protect serializes the properties into an opaque string.
	Protect(props *Properties) (string, error)

	// Unprotect verifies and deserializes an opaque string produced by Protect.
	Unprotect(value string) (*Properties, error)
}

// CorrelationIDLength is the length of generated correlation ids in bytes.
const CorrelationIDLength = 32

// NewCorrelationID generates a cryptographically random correlation id for
// CSRF pairing between the challenge and the callback.
func NewCorrelationID() (string, error) {
	b := make([]byte, CorrelationIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
