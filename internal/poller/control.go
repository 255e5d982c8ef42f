package poller

import (
	"context"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/statecache"
)

// ControlClient extends the poll surface with per-task actions.
type ControlClient interface {
	Client
	PauseTasks(ctx context.Context, ids []string) dsclient.Result[dsclient.Void]
	ResumeTasks(ctx context.Context, ids []string) dsclient.Result[dsclient.Void]
	DeleteTasks(ctx context.Context, ids []string) dsclient.Result[dsclient.Void]
}

// PauseTasks pauses the given tasks and re-polls so the cache reflects the
// server-side truth promptly, whatever the action outcome was.
func PauseTasks(ctx context.Context, client ControlClient, cache *statecache.Store, ids []string) dsclient.Result[dsclient.Void] {
	res := dsclient.WithNoPermissionRetry(ctx, client, func(ctx context.Context) dsclient.Result[dsclient.Void] {
		return client.PauseTasks(ctx, ids)
	})
	PollTasks(ctx, client, cache)
	return res
}

// ResumeTasks resumes the given tasks and re-polls.
func ResumeTasks(ctx context.Context, client ControlClient, cache *statecache.Store, ids []string) dsclient.Result[dsclient.Void] {
	res := dsclient.WithNoPermissionRetry(ctx, client, func(ctx context.Context) dsclient.Result[dsclient.Void] {
		return client.ResumeTasks(ctx, ids)
	})
	PollTasks(ctx, client, cache)
	return res
}

// DeleteTasks removes the given tasks and re-polls.
func DeleteTasks(ctx context.Context, client ControlClient, cache *statecache.Store, ids []string) dsclient.Result[dsclient.Void] {
	res := dsclient.WithNoPermissionRetry(ctx, client, func(ctx context.Context) dsclient.Result[dsclient.Void] {
		return client.DeleteTasks(ctx, ids)
	})
	PollTasks(ctx, client, cache)
	return res
}
