// Package submit turns user-supplied URLs into one batched create-task
// request: direct URIs pass through, metadata files (torrents, NZBs) are
// fetched and uploaded by content.
package submit

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/lang"
	"github.com/dswatch/dswatch/internal/logutils"
	"github.com/dswatch/dswatch/internal/notify"
)

// Client is the remote surface a submission needs.
type Client interface {
	CreateTasks(ctx context.Context, req dsclient.CreateRequest) dsclient.Result[dsclient.Void]
	Logout(ctx context.Context)
}

type Submitter struct {
	client   Client
	notifier notify.Notifier
	poll     func(context.Context)
	http     *http.Client
}

func NewSubmitter(client Client, notifier notify.Notifier, poll func(context.Context)) *Submitter {
	return &Submitter{
		client:   client,
		notifier: notifier,
		poll:     poll,
		http:     &http.Client{Timeout: probeTimeout},
	}
}

// resolvedItem is one submission input after classification: either a
// fetched metadata file or a bare URI.
type resolvedItem struct {
	file *dsclient.FileUpload
	uri  string
}

func (r resolvedItem) displayName() string {
	if r.file != nil {
		return r.file.Filename
	}
	return r.uri
}

// Submit resolves each URL independently, submits everything that resolved
// as one batched create request and re-polls. One feedback notification is
// created up front and updated in place once the outcome is known. Submit
// never propagates a failure to the caller: it is invoked from event
// handlers that have nowhere to report one.
func (s *Submitter) Submit(ctx context.Context, urls []string, destination string) {
	var notificationID string
	defer func() {
		if r := recover(); r != nil {
			logutils.Log.Errorf("Download submission panicked: %v", r)
			s.notifier.Notify(notificationID, lang.GetMessage(lang.AddDownloadFailedMsgID), "")
		}
	}()

	if len(urls) == 0 {
		s.notifier.Notify("", lang.GetMessage(lang.AddDownloadFailedMsgID), lang.GetMessage(lang.NoURLGivenMsgID))
		return
	}
	destination = strings.TrimPrefix(destination, "/")

	title := lang.GetMessage(lang.AddingDownloadMsgID)
	if len(urls) > 1 {
		title = lang.GetMessage(lang.AddingDownloadsMsgID, len(urls))
	}
	notificationID = s.notifier.Notify("", title, "")

	items, errs := s.resolveAll(ctx, urls)
	for _, err := range errs {
		logutils.Log.WithError(err).Warn("Skipping download URL")
	}
	if len(items) == 0 {
		s.notifier.Notify(notificationID, lang.GetMessage(lang.NoDownloadsAddedMsgID), "")
		return
	}

	req := dsclient.CreateRequest{Destination: destination}
	for _, item := range items {
		if item.file != nil {
			req.Files = append(req.Files, *item.file)
		} else {
			req.URIs = append(req.URIs, item.uri)
		}
	}

	res := dsclient.WithNoPermissionRetry(ctx, s.client, func(ctx context.Context) dsclient.Result[dsclient.Void] {
		return s.client.CreateTasks(ctx, req)
	})

	switch {
	case res.Failure != nil:
		s.notifier.Notify(notificationID, lang.GetMessage(lang.AddDownloadFailedMsgID), res.Failure.Message())
	case !res.Response.Success:
		s.notifier.Notify(notificationID, lang.GetMessage(lang.AddDownloadFailedMsgID), dsclient.ErrorMessage(res.Response.Error.Code))
	case len(items) == 1:
		s.notifier.Notify(notificationID, lang.GetMessage(lang.DownloadAddedMsgID, items[0].displayName()), "")
	default:
		s.notifier.Notify(notificationID, lang.GetMessage(lang.DownloadsAddedMsgID, len(items)), "")
	}

	// Reflect server-side truth promptly, whatever the create outcome was.
	s.poll(ctx)
}

// resolveAll fans out resolution per URL and joins with all-settled
// semantics: one slow or failing probe neither blocks nor fails the rest.
func (s *Submitter) resolveAll(ctx context.Context, urls []string) ([]resolvedItem, []error) {
	type outcome struct {
		item resolvedItem
		err  error
	}
	outcomes := make([]outcome, len(urls))

	var wg sync.WaitGroup
	for i, raw := range urls {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			item, err := s.resolveOne(ctx, raw)
			outcomes[i] = outcome{item: item, err: err}
		}(i, raw)
	}
	wg.Wait()

	var items []resolvedItem
	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		items = append(items, o.item)
	}
	return items, errs
}
