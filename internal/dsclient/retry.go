package dsclient

import (
	"context"

	"github.com/dswatch/dswatch/internal/logutils"
)

// AuthResetter is the auth surface the retry wrapper needs.
type AuthResetter interface {
	Logout(ctx context.Context)
}

// WithNoPermissionRetry runs call once. When the server answers with a
// well-formed "no permission" error, the session is force-reset via Logout
// and call is run exactly one more time; that second result is returned
// verbatim, win or lose. A stale session sometimes surfaces as a permissions
// error after prolonged inactivity, and one re-auth self-heals it without
// user action. Every other result passes through unchanged.
func WithNoPermissionRetry[T any](ctx context.Context, auth AuthResetter, call func(context.Context) Result[T]) Result[T] {
	res := call(ctx)
	if res.Failure == nil && res.Response != nil && !res.Response.Success && res.Response.Error.Code == CodeNoPermission {
		logutils.Log.Info("Received no-permission error, resetting session and retrying once")
		auth.Logout(ctx)
		return call(ctx)
	}
	return res
}
