// Package actorctx carries the identity of the acting user through a request
// so every storage mutation can be attributed, including statements issued
// outside the repository layer (triggers, interceptors) which read the
// transaction-local app.actor_id setting instead of an explicit parameter.
package actorctx

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

type actorIDContextKey struct{}

type suppressContextKey struct{}

// WithActor stores the acting user's id in context.
func WithActor(ctx context.Context, actorID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorIDContextKey{}, actorID)
}

// ActorID returns the acting user's id, honoring suppression. The bool is
// false when no actor is set or the scope is suppressed.
func ActorID(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	if suppressed, _ := ctx.Value(suppressContextKey{}).(bool); suppressed {
		return 0, false
	}
	id, ok := ctx.Value(actorIDContextKey{}).(int64)
	return id, ok
}

// ActorRef returns the actor id as a nullable reference for audit rows.
func ActorRef(ctx context.Context) *int64 {
	if id, ok := ActorID(ctx); ok {
		return &id
	}
	return nil
}

// Suppress returns a context whose actor resolves to system/none. The scope
// is bounded by the returned context: callers that keep using the parent
// context are unaffected, so there is nothing to restore and no global state
// to leak when the wrapped operation panics or returns early.
func Suppress(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, suppressContextKey{}, true)
}

// Stamp annotates the transaction with the acting user via a
// transaction-local setting, so audit mechanisms attached at the storage
// layer can read who is writing. A suppressed or absent actor stamps the
// empty string, which those mechanisms treat as "system".
func Stamp(ctx context.Context, tx pgx.Tx) error {
	value := ""
	if id, ok := ActorID(ctx); ok {
		value = strconv.FormatInt(id, 10)
	}
	_, err := tx.Exec(ctx, `SELECT set_config('app.actor_id', $1, true)`, value)
	return err
}
