// Package poller owns the task-list refresh cycle: it is the single writer
// of task data in the state cache.
package poller

import (
	"context"
	"time"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/logutils"
	"github.com/dswatch/dswatch/internal/statecache"
)

const listTimeout = 20 * time.Second

// Client is the remote surface a poll needs.
type Client interface {
	ListTasks(ctx context.Context, opts dsclient.ListOptions) dsclient.Result[dsclient.TaskList]
	Logout(ctx context.Context)
}

// PollTasks runs one polling cycle: record the attempt, fetch all tasks with
// transfer detail, classify the outcome and commit it together with the
// completion timestamp as one cache write. A poll is a best-effort background
// refresh, so it never reports failure to the caller; everything unexpected
// is logged and the cache is left as it was.
func PollTasks(ctx context.Context, client Client, cache *statecache.Store) {
	defer func() {
		if r := recover(); r != nil {
			logutils.Log.Errorf("Task poll panicked: %v", r)
		}
	}()

	fetched := make(chan dsclient.Result[dsclient.TaskList], 1)
	go func() {
		fetched <- dsclient.WithNoPermissionRetry(ctx, client, func(ctx context.Context) dsclient.Result[dsclient.TaskList] {
			return client.ListTasks(ctx, dsclient.ListOptions{
				Offset:     0,
				Limit:      -1,
				Additional: "transfer",
				Timeout:    listTimeout,
			})
		})
	}()

	initiatedAt := time.Now()
	if err := cache.Apply(statecache.Patch{InitiatedFetchAt: &initiatedAt}); err != nil {
		logutils.Log.WithError(err).Error("Failed to record poll start")
	}

	patch := classify(<-fetched)
	completedAt := time.Now()
	patch.CompletedFetchAt = &completedAt
	if err := cache.Apply(patch); err != nil {
		logutils.Log.WithError(err).Error("Failed to commit poll result")
	}
}

func classify(res dsclient.Result[dsclient.TaskList]) statecache.Patch {
	if res.Failure != nil {
		if res.Failure.Kind == dsclient.FailureMissingConfig {
			return statecache.Patch{
				SetFailureReason: true,
				FailureReason:    statecache.MissingConfigReason(),
			}
		}
		logutils.Log.WithError(res.Failure.Err).WithField("kind", res.Failure.Kind).Warn("Task list fetch failed")
		return statecache.Patch{
			SetFailureReason: true,
			FailureReason:    statecache.ErrorReason(res.Failure.Message()),
		}
	}
	if res.Response.Success {
		tasks := res.Response.Data.Tasks
		return statecache.Patch{
			Tasks:            &tasks,
			SetFailureReason: true,
			FailureReason:    nil,
		}
	}
	logutils.Log.WithField("code", res.Response.Error.Code).Warn("Task list request rejected by server")
	return statecache.Patch{
		SetFailureReason: true,
		FailureReason:    statecache.ErrorReason(dsclient.ErrorMessage(res.Response.Error.Code)),
	}
}
