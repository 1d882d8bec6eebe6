// Package storage provides one-time-use enforcement for OAuth2 state
// correlation ids. The signed state blob alone stops forgery but not replay:
// a leaked callback URL stays redeemable until the blob expires. A ReplayStore
// closes that window by remembering which correlation ids were already spent.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAlreadyUsed is returned when a correlation id was spent before.
	ErrAlreadyUsed = errors.New("state already used")
)

// ReplayStore records spent correlation ids. Implementations must be safe
// for concurrent use.
type ReplayStore interface {
	// MarkUsed records the id as spent for at least ttl. Returns
	// ErrAlreadyUsed when the id was recorded before and has not expired.
	MarkUsed(ctx context.Context, id string, ttl time.Duration) error
}
