// Package audit provides audit logging for the Slack sign-in flow. Every
// challenge and callback outcome can be recorded as a structured event,
// giving operators a trail of who signed in, who was denied, and which
// attempts failed validation.
package audit

import (
	"context"
	"time"
)

// Logger records audit events. Implementations must be thread-safe; logging
// failures must never prevent the sign-in flow from completing.
type Logger interface {
	Log(ctx context.Context, event *Event) error
}

// EventType identifies the step of the flow an event belongs to.
type EventType string

const (
	// EventChallenge is recorded when a challenge redirect is issued.
	EventChallenge EventType = "slack.challenge"

	// EventCallback is recorded for the overall callback outcome.
	EventCallback EventType = "slack.callback"

	// EventTokenExchange is recorded for the code-for-token exchange.
	EventTokenExchange EventType = "slack.token_exchange"

	// EventUserInfo is recorded for the user-info fetch.
	EventUserInfo EventType = "slack.user_info"
)

// EventResult is the outcome of an event.
type EventResult string

const (
	// ResultSuccess indicates the step succeeded.
	ResultSuccess EventResult = "success"

	// ResultFailure indicates the step failed.
	ResultFailure EventResult = "failure"

	// ResultDenied indicates the provider or the user denied the attempt.
	ResultDenied EventResult = "denied"
)

// Event is one security-relevant occurrence in the sign-in flow.
type Event struct {
	// Timestamp is when the event occurred (UTC recommended).
	Timestamp time.Time `json:"timestamp"`

	// Type identifies the flow step.
	Type EventType `json:"event_type"`

	// Result indicates the outcome.
	Result EventResult `json:"event_result"`

	// TraceID correlates all events of one login attempt.
	TraceID string `json:"trace_id,omitempty"`

	// TeamID and UserID identify the authenticated principal when known.
	TeamID string `json:"team_id,omitempty"`
	UserID string `json:"user_id,omitempty"`

	// Error carries the failure detail when Result is not success.
	Error string `json:"error,omitempty"`

	// Source describes where the request came from.
	Source *Source `json:"source,omitempty"`
}

// Source is the origin of the HTTP request that triggered an event.
type Source struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}
